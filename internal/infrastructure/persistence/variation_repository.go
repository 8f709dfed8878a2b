package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/amws/backend/internal/domain/catalog"
	"github.com/amws/backend/internal/domain/shared"
)

// GormVariationRepository implements catalog.VariationRepository
// using GORM
type GormVariationRepository struct {
	db *gorm.DB
}

// NewGormVariationRepository creates a new GormVariationRepository
func NewGormVariationRepository(db *gorm.DB) *GormVariationRepository {
	return &GormVariationRepository{db: db}
}

// BySKU returns the variation with the given SKU, with its parent
// product and store associations loaded
func (r *GormVariationRepository) BySKU(ctx context.Context, sku string) (*catalog.Variation, error) {
	var variation catalog.Variation
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Stores").
		First(&variation, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &variation, nil
}

// Save creates or updates a variation
func (r *GormVariationRepository) Save(ctx context.Context, variation *catalog.Variation) error {
	return r.db.WithContext(ctx).Save(variation).Error
}

// FindForExport returns variations marked for export, with parent
// products loaded, capped at limit (0 = unbounded)
func (r *GormVariationRepository) FindForExport(ctx context.Context, limit int) ([]catalog.Variation, error) {
	var variations []catalog.Variation
	query := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Stores").
		Where("export_enabled = ?", true).
		Order("sku ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&variations).Error; err != nil {
		return nil, err
	}
	return variations, nil
}
