package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amws/backend/internal/domain/order"
	"github.com/amws/backend/internal/domain/shared"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists a new order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// Save persists changes to an existing order and its associations
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(o).Error
}

// Delete removes an order with its items and shipments
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shipmentIDs []uuid.UUID
		if err := tx.Model(&order.Shipment{}).
			Where("order_id = ?", id).
			Pluck("id", &shipmentIDs).Error; err != nil {
			return err
		}
		if len(shipmentIDs) > 0 {
			if err := tx.Where("shipment_id IN ?", shipmentIDs).
				Delete(&order.ShipmentItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", id).
				Delete(&order.Shipment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("order_id = ?", id).
			Delete(&order.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order.Order{}, "id = ?", id).Error
	})
}

// FindByID loads an order with items and shipments
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipments").
		Preload("Shipments.Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ImportedRemoteIDs returns the subset of remoteIDs that already have
// an order in the given store
func (r *GormOrderRepository) ImportedRemoteIDs(ctx context.Context, storeID string, remoteIDs []string) ([]string, error) {
	if len(remoteIDs) == 0 {
		return nil, nil
	}

	var imported []string
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("store_id = ? AND remote_id IN ?", storeID, remoteIDs).
		Pluck("remote_id", &imported).Error; err != nil {
		return nil, err
	}
	return imported, nil
}

// FindCreatedBefore returns up to limit orders of the given type
// created at or before cutoff, oldest first, with shipments loaded
func (r *GormOrderRepository) FindCreatedBefore(ctx context.Context, orderType string, cutoff time.Time, limit int) ([]order.Order, error) {
	var orders []order.Order
	query := r.db.WithContext(ctx).
		Preload("Shipments").
		Where("type = ? AND created_at <= ?", orderType, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
