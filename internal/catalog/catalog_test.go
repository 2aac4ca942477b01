package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/bwengye/bwengye/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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

func seed(t *testing.T, db *gorm.DB, ms ...models.AIModel) {
	t.Helper()
	for _, m := range ms {
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %s: %v", m.Name, err)
		}
	}
}

func TestListActive_FiltersAndOrders(t *testing.T) {
	db := openTestDB(t)
	seed(t, db,
		models.AIModel{Name: "zeta", ModelType: "chat", IsActive: true},
		models.AIModel{Name: "alpha", ModelType: "chat", IsActive: true},
		models.AIModel{Name: "inactive", ModelType: "chat", IsActive: false},
	)

	active, err := New(db).ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("len(active) = %d, want 2", len(active))
	}
	if active[0].Name != "alpha" || active[1].Name != "zeta" {
		t.Errorf("ordering = [%s %s], want [alpha zeta]", active[0].Name, active[1].Name)
	}
	for _, m := range active {
		if !m.IsActive {
			t.Errorf("model %s is inactive but was listed", m.Name)
		}
	}
}

func TestListActive_EmptyCatalog(t *testing.T) {
	db := openTestDB(t)
	active, err := New(db).ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("len(active) = %d, want 0", len(active))
	}
}

func TestGet(t *testing.T) {
	db := openTestDB(t)
	seed(t, db,
		models.AIModel{Name: "gpt-5-mini-2025-08-07", ModelType: "chat", IsActive: true},
		models.AIModel{Name: "retired", ModelType: "chat", IsActive: false},
	)
	c := New(db)

	m, err := c.Get(context.Background(), "gpt-5-mini-2025-08-07")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Name != "gpt-5-mini-2025-08-07" {
		t.Errorf("Name = %q", m.Name)
	}

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
	// Inactive models are invisible through Get.
	if _, err := c.Get(context.Background(), "retired"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(retired) err = %v, want ErrNotFound", err)
	}
}

func TestResolveRoles(t *testing.T) {
	active := []models.AIModel{
		{Name: "gpt-5-2025-08-07", ModelType: "chat", IsActive: true, Capabilities: `["chat","code","flagship"]`},
		{Name: "gpt-5-mini-2025-08-07", ModelType: "chat", IsActive: true, Capabilities: `["chat","fast"]`},
		{Name: "o3-2025-04-16", ModelType: "chat", IsActive: true, Capabilities: `["chat","reasoning"]`},
		{Name: "flux-schnell", ModelType: "image", IsActive: true, Capabilities: `["fast"]`},
	}

	r := ResolveRoles(active)
	if r.Fast == nil || r.Fast.Name != "gpt-5-mini-2025-08-07" {
		t.Errorf("Fast = %v, want gpt-5-mini-2025-08-07", r.Fast)
	}
	if r.Flagship == nil || r.Flagship.Name != "gpt-5-2025-08-07" {
		t.Errorf("Flagship = %v, want gpt-5-2025-08-07", r.Flagship)
	}
	if r.Code == nil || r.Code.Name != "gpt-5-2025-08-07" {
		t.Errorf("Code = %v, want gpt-5-2025-08-07", r.Code)
	}
	if r.Reasoning == nil || r.Reasoning.Name != "o3-2025-04-16" {
		t.Errorf("Reasoning = %v, want o3-2025-04-16", r.Reasoning)
	}
}

func TestResolveRoles_NonChatModelsIgnored(t *testing.T) {
	r := ResolveRoles([]models.AIModel{
		{Name: "flux-schnell", ModelType: "image", Capabilities: `["fast","flagship"]`},
	})
	if r.Fast != nil || r.Flagship != nil {
		t.Errorf("image models must not fill chat roles: %+v", r)
	}
}

func TestResolveRoles_Empty(t *testing.T) {
	r := ResolveRoles(nil)
	if r.Fast != nil || r.Flagship != nil || r.Code != nil || r.Reasoning != nil {
		t.Errorf("empty catalog should resolve no roles: %+v", r)
	}
}
