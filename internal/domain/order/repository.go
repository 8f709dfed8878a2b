package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Repository interfaces
// ---------------------------------------------------------------------------

// OrderRepository defines the persistence operations for orders
type OrderRepository interface {
	// Create persists a new order together with its items
	Create(ctx context.Context, o *Order) error
	// Save persists changes to an existing order and its associations
	Save(ctx context.Context, o *Order) error
	// Delete removes an order with its items and shipments
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByID loads an order with items and shipments
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// ImportedRemoteIDs returns the subset of remoteIDs that already
	// have an order in the given store
	ImportedRemoteIDs(ctx context.Context, storeID string, remoteIDs []string) ([]string, error)
	// FindCreatedBefore returns up to limit orders of the given type
	// created at or before cutoff, oldest first, with shipments
	// loaded. A zero limit is unbounded.
	FindCreatedBefore(ctx context.Context, orderType string, cutoff time.Time, limit int) ([]Order, error)
}

// ProfileRepository defines the persistence operations for customer
// profiles
type ProfileRepository interface {
	// Create persists a new profile
	Create(ctx context.Context, p *Profile) error
	// Save persists changes to an existing profile
	Save(ctx context.Context, p *Profile) error
	// Delete removes a profile
	Delete(ctx context.Context, id uuid.UUID) error
}
