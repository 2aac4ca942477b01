package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bwengye/bwengye/internal/config"
	"github.com/bwengye/bwengye/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.AIModel{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func TestListModels(t *testing.T) {
	db := openTestDB(t)
	seeds := []models.AIModel{
		{Name: "gpt-5-mini-2025-08-07", Provider: "openai", ModelType: "chat",
			Capabilities: `["text","fast"]`, MaxTokens: 16384, IsActive: true},
		{Name: "old-model", Provider: "openai", ModelType: "chat",
			Capabilities: `["text"]`, MaxTokens: 4096, IsActive: false},
	}
	for i := range seeds {
		if err := db.Create(&seeds[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := listModels(cmd, db, false); err != nil {
		t.Fatalf("listModels: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gpt-5-mini-2025-08-07") {
		t.Errorf("active model missing from output: %s", out)
	}
	if strings.Contains(out, "old-model") {
		t.Errorf("inactive model should be hidden by default: %s", out)
	}

	buf.Reset()
	if err := listModels(cmd, db, true); err != nil {
		t.Fatalf("listModels --all: %v", err)
	}
	if !strings.Contains(buf.String(), "old-model") {
		t.Errorf("--all should include inactive models: %s", buf.String())
	}
}

func TestSeedCatalog(t *testing.T) {
	db := openTestDB(t)

	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	seeds := []config.ModelSeed{
		{Name: "gpt-5-mini-2025-08-07", Provider: "openai", ModelType: "chat",
			Capabilities: []string{"text", "fast"}, MaxTokens: 16384, Active: true},
	}
	if err := seedCatalog(cmd, db, seeds); err != nil {
		t.Fatalf("seedCatalog: %v", err)
	}
	if !strings.Contains(buf.String(), "gpt-5-mini-2025-08-07") {
		t.Errorf("output = %s", buf.String())
	}

	// Re-seeding updates in place instead of duplicating.
	seeds[0].MaxTokens = 32768
	if err := seedCatalog(cmd, db, seeds); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	var count int64
	db.Model(&models.AIModel{}).Count(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	var m models.AIModel
	if err := db.First(&m, "name = ?", "gpt-5-mini-2025-08-07").Error; err != nil {
		t.Fatalf("load model: %v", err)
	}
	if m.MaxTokens != 32768 {
		t.Errorf("MaxTokens = %d, want updated value", m.MaxTokens)
	}
}
