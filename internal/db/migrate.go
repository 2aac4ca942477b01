package db

import (
	"encoding/json"
	"fmt"

	"github.com/bwengye/bwengye/internal/config"
	"github.com/bwengye/bwengye/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.AIModel{},
		&models.Conversation{},
		&models.Message{},
		&models.AnalyticsEvent{},
		&models.Profile{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedModels upserts catalog entries from configuration. Seeding is the only
// write path into the model catalog; request handling treats it as read-only.
func SeedModels(db *gorm.DB, seeds []config.ModelSeed) error {
	for _, s := range seeds {
		capabilities, err := marshalJSON(s.Capabilities)
		if err != nil {
			return fmt.Errorf("db: marshal capabilities for model %q: %w", s.Name, err)
		}
		configuration, err := marshalJSON(s.Configuration)
		if err != nil {
			return fmt.Errorf("db: marshal configuration for model %q: %w", s.Name, err)
		}

		m := models.AIModel{
			Name:          s.Name,
			Provider:      s.Provider,
			ModelType:     s.ModelType,
			Capabilities:  capabilities,
			MaxTokens:     s.MaxTokens,
			CostPerToken:  s.CostPerToken,
			IsActive:      s.Active,
			Configuration: configuration,
		}

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"provider", "model_type", "capabilities", "max_tokens", "cost_per_token", "is_active", "configuration"}),
		}).Create(&m)
		if result.Error != nil {
			return fmt.Errorf("db: seed model %q: %w", s.Name, result.Error)
		}
	}
	return nil
}

// marshalJSON marshals a value to a JSON string, returning empty string for nil.
func marshalJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
