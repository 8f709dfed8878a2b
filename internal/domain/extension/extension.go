// Package extension defines the hook points raised while marketplace
// orders are imported, and the listener contract for reacting to them.
package extension

import (
	"context"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/order"
)

// Point identifies a hook point in the order import flow
type Point string

// Hook points raised by the import orchestrator
const (
	// OrderCreate fires after the local order header is built, before
	// the first save
	OrderCreate Point = "order.create"
	// OrderInsert fires after the order and its items have been saved
	OrderInsert Point = "order.insert"
	// OrderItemCreate fires for each item after it is built, before
	// the order is saved
	OrderItemCreate Point = "order_item.create"
	// ProfileCreate fires after a billing profile is built, before it
	// is saved
	ProfileCreate Point = "profile.create"
	// ProfileInsert fires after a billing profile has been saved
	ProfileInsert Point = "profile.insert"
)

// DefaultPriority is used when a listener registers without an
// explicit priority
const DefaultPriority = 100

// HookContext carries the entities a listener may inspect or mutate.
// Which fields are set depends on the hook point.
type HookContext struct {
	// Store is the marketplace store the order belongs to
	Store *amws.Store
	// RemoteOrder is the order as fetched from the marketplace
	RemoteOrder *amws.Order
	// RemoteItem is set on OrderItemCreate only
	RemoteItem *amws.OrderItem
	// Order is the local order under construction
	Order *order.Order
	// Item is set on OrderItemCreate only
	Item *order.Item
	// Profile is set on ProfileCreate and ProfileInsert
	Profile *order.Profile

	saveRequested bool
}

// RequestSave asks the orchestrator to persist the order again after
// all listeners for the current point have run. Multiple requests
// collapse into a single save.
func (c *HookContext) RequestSave() {
	c.saveRequested = true
}

// SaveRequested reports whether any listener asked for a re-save
func (c *HookContext) SaveRequested() bool {
	return c.saveRequested
}

// ListenerFunc handles a hook point. Mutations made through the
// context are visible to later listeners of the same point.
type ListenerFunc func(ctx context.Context, hc *HookContext) error

// Bus dispatches hook points to registered listeners
type Bus interface {
	// Subscribe registers a listener for a point. Lower priority runs
	// first. Listeners with equal priority run in registration order.
	Subscribe(point Point, priority int, listener ListenerFunc)
	// Publish runs all listeners for the point in order. Listener
	// errors are logged and do not stop dispatch.
	Publish(ctx context.Context, point Point, hc *HookContext)
}
