package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaults applied to shipments constructed for marketplace orders
const (
	// DefaultShipmentType is the shipment type for marketplace orders
	DefaultShipmentType = "default"
	// DefaultShipmentState is the state new shipments are created in
	DefaultShipmentState = "draft"
)

// Shipment groups the items of an order for delivery to the order's
// shipping address
type Shipment struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// OrderID is the owning order
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Type is the shipment type
	Type string `gorm:"type:varchar(32);not null"`
	// State is the shipment lifecycle state
	State string `gorm:"type:varchar(32);not null"`
	// ShippingProfileID references the shipping profile, if one was
	// attached
	ShippingProfileID *uuid.UUID `gorm:"type:uuid"`
	// Items are the shipment items
	Items []ShipmentItem `gorm:"foreignKey:ShipmentID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for shipments
func (Shipment) TableName() string {
	return "shipments"
}

// ShipmentItem is a single order item inside a shipment
type ShipmentItem struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// ShipmentID is the owning shipment
	ShipmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	// OrderItemID is the order item this shipment item covers
	OrderItemID uuid.UUID `gorm:"type:uuid;not null"`
	// Title is the order item title
	Title string `gorm:"type:varchar(200);not null"`
	// Quantity is the shipped quantity
	Quantity int64 `gorm:"not null"`
	// DeclaredValue is the item's total price for the shipped quantity
	DeclaredValue decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	// CurrencyCode is the currency of the declared value
	CurrencyCode string `gorm:"type:varchar(3);not null"`
}

// TableName returns the database table name for shipment items
func (ShipmentItem) TableName() string {
	return "shipment_items"
}
