package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/shared"
)

// GormStoreRepository implements amws.StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by its machine name
func (r *GormStoreRepository) FindByID(ctx context.Context, id string) (*amws.Store, error) {
	var store amws.Store
	if err := r.db.WithContext(ctx).
		First(&store, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &store, nil
}

// FindEnabled returns all stores enabled for processing, in ID order
func (r *GormStoreRepository) FindEnabled(ctx context.Context) ([]amws.Store, error) {
	var stores []amws.Store
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("id ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, store *amws.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}
