package models

import (
	"encoding/json"
	"time"
)

// AIModel is one catalog entry describing a backend inference model.
// Rows are owned by an external administrative process and are read-only
// during request handling.
type AIModel struct {
	Name          string  `gorm:"primaryKey;size:128" json:"name"`
	Provider      string  `gorm:"size:64" json:"provider"`
	ModelType     string  `gorm:"size:16;index" json:"model_type"` // chat, image, audio
	Capabilities  string  `gorm:"type:json" json:"-"`              // JSON array of tags
	MaxTokens     int     `json:"max_tokens"`
	CostPerToken  float64 `json:"cost_per_token"`
	IsActive      bool    `gorm:"default:true;index" json:"is_active"`
	Configuration string  `gorm:"type:json" json:"-"` // free-form JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CapabilityList decodes the capability tags. A malformed or empty column
// yields an empty list.
func (m *AIModel) CapabilityList() []string {
	if m.Capabilities == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(m.Capabilities), &tags); err != nil {
		return nil
	}
	return tags
}

// HasCapability reports whether the model carries the given tag.
func (m *AIModel) HasCapability(tag string) bool {
	for _, t := range m.CapabilityList() {
		if t == tag {
			return true
		}
	}
	return false
}

// ConfigMap decodes the free-form configuration column.
func (m *AIModel) ConfigMap() map[string]interface{} {
	if m.Configuration == "" {
		return nil
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal([]byte(m.Configuration), &cfg); err != nil {
		return nil
	}
	return cfg
}
