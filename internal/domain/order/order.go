package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults applied to orders created by the import pipeline. Imported
// orders are assigned to the system actor and created directly in the
// completed state since they were placed and paid on the marketplace.
const (
	// DefaultType is the order type used for marketplace orders
	DefaultType = "amazon_mws"
	// DefaultItemType is the order item type used for marketplace orders
	DefaultItemType = "amazon_mws"
	// DefaultState is the lifecycle state new marketplace orders start in
	DefaultState = "completed"
)

// Order is the persisted local representation of a marketplace order
type Order struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// Type is the order type; the retention purger only touches orders of
	// DefaultType
	Type string `gorm:"type:varchar(32);not null;index"`
	// Number is the operator-facing order number, assigned after the first
	// save
	Number string `gorm:"type:varchar(50)"`
	// RemoteID is the marketplace order ID, unique within a store
	RemoteID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_store_remote,priority:2"`
	// StoreID is the store the order belongs to
	StoreID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_store_remote,priority:1"`
	// State is the order lifecycle state
	State string `gorm:"type:varchar(32);not null"`
	// Email is the buyer email
	Email string `gorm:"type:varchar(254)"`
	// BillingProfileID references the billing profile, if one was attached
	BillingProfileID *uuid.UUID `gorm:"type:uuid"`
	// Items are the order line items, in attachment order
	Items []Item `gorm:"foreignKey:OrderID"`
	// Shipments are the shipments constructed for the order
	Shipments []Shipment `gorm:"foreignKey:OrderID"`

	// CreatedAt is the creation time, taken from the remote purchase date
	// when available
	CreatedAt time.Time `gorm:"not null;index"`
	// ChangedAt is the last change time, taken from the remote last update
	// date when available
	ChangedAt time.Time `gorm:"not null"`
	// PlacedAt is when the order was placed
	PlacedAt time.Time `gorm:"not null"`
	// CompletedAt is when the order was completed
	CompletedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for orders
func (Order) TableName() string {
	return "orders"
}

// AddItem appends an item to the order
func (o *Order) AddItem(item Item) {
	o.Items = append(o.Items, item)
}

// HasShipments returns true if any shipment has been attached
func (o *Order) HasShipments() bool {
	return len(o.Shipments) > 0
}

// Item is a line item of a local order
type Item struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// OrderID is the owning order
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Type is the order item type
	Type string `gorm:"type:varchar(32);not null"`
	// RemoteID is the marketplace line item ID
	RemoteID string `gorm:"type:varchar(64);not null"`
	// VariationID is the purchased catalog variation
	VariationID uuid.UUID `gorm:"type:uuid;not null"`
	// Title is the remote listing title, falling back to the variation
	// title
	Title string `gorm:"type:varchar(200);not null"`
	// Quantity is the ordered quantity
	Quantity int64 `gorm:"not null"`
	// UnitPrice is the derived per-unit price
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	// CurrencyCode is the currency of the unit price
	CurrencyCode string `gorm:"type:varchar(3);not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for order items
func (Item) TableName() string {
	return "order_items"
}
