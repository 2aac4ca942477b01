// Package catalog provides read access to the backend model catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwengye/bwengye/internal/models"
	"gorm.io/gorm"
)

// ErrUnavailable indicates the store could not serve the catalog. Routing
// cannot proceed without a catalog, so callers treat this as fatal for the
// current request.
var ErrUnavailable = errors.New("catalog: store unavailable")

// ErrNotFound indicates the named model does not exist or is inactive.
var ErrNotFound = errors.New("catalog: model not found")

// Catalog reads active models from the store. It never writes.
type Catalog struct {
	db *gorm.DB
}

// New creates a Catalog backed by the given store connection.
func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ListActive returns all active models ordered by name.
func (c *Catalog) ListActive(ctx context.Context) ([]models.AIModel, error) {
	var active []models.AIModel
	err := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&active).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list active models: %v", ErrUnavailable, err)
	}
	return active, nil
}

// Get returns the named model if it exists and is active.
func (c *Catalog) Get(ctx context.Context, name string) (*models.AIModel, error) {
	var m models.AIModel
	err := c.db.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		First(&m).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case err != nil:
		return nil, fmt.Errorf("%w: get model %s: %v", ErrUnavailable, name, err)
	}
	return &m, nil
}
