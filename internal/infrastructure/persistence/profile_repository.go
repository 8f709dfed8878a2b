package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amws/backend/internal/domain/order"
)

// GormProfileRepository implements order.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// Create persists a new profile
func (r *GormProfileRepository) Create(ctx context.Context, p *order.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save persists changes to an existing profile
func (r *GormProfileRepository) Save(ctx context.Context, p *order.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete removes a profile
func (r *GormProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&order.Profile{}, "id = ?", id).Error
}
