package amws

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// OrderStatus
// ---------------------------------------------------------------------------

// OrderStatus represents the status of an order on Amazon MWS
type OrderStatus string

const (
	// OrderStatusCanceled indicates the order was canceled
	OrderStatusCanceled OrderStatus = "Canceled"
	// OrderStatusPartiallyShipped indicates some items have shipped
	OrderStatusPartiallyShipped OrderStatus = "PartiallyShipped"
	// OrderStatusUnfulfillable indicates the order cannot be fulfilled
	OrderStatusUnfulfillable OrderStatus = "Unfulfillable"
	// OrderStatusUnshipped indicates no items have shipped yet
	OrderStatusUnshipped OrderStatus = "Unshipped"
)

// orderStatuses is the explicit mapping from remote status strings to the
// supported status values. Statuses are never derived from strings by
// concatenation or reflection.
var orderStatuses = map[string]OrderStatus{
	"Canceled":         OrderStatusCanceled,
	"PartiallyShipped": OrderStatusPartiallyShipped,
	"Unfulfillable":    OrderStatusUnfulfillable,
	"Unshipped":        OrderStatusUnshipped,
}

// OrderStatusFromRemote maps a remote status string to an OrderStatus.
// The second return value is false for statuses this integration does not
// support.
func OrderStatusFromRemote(s string) (OrderStatus, bool) {
	status, ok := orderStatuses[s]
	return status, ok
}

// SupportedOrderStatuses returns the statuses that may be requested from the
// marketplace, in a stable order.
func SupportedOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusCanceled,
		OrderStatusPartiallyShipped,
		OrderStatusUnfulfillable,
		OrderStatusUnshipped,
	}
}

// IsValid returns true if the status is one of the supported statuses
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[string(s)]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Money represents a remote monetary amount in a given currency
type Money struct {
	// Amount is the monetary amount
	Amount decimal.Decimal
	// CurrencyCode is the ISO 4217 currency code
	CurrencyCode string
}

// Zero returns a zero amount in the same currency
func (m Money) Zero() Money {
	return Money{Amount: decimal.Zero, CurrencyCode: m.CurrencyCode}
}

// Address represents a remote shipping address. Amazon MWS provides up to
// three address lines.
type Address struct {
	// Name is the recipient name
	Name string
	// AddressLine1 is the first address line
	AddressLine1 string
	// AddressLine2 is the second address line
	AddressLine2 string
	// AddressLine3 is the third address line
	AddressLine3 string
	// City is the city or locality
	City string
	// StateOrRegion is the state, province or region
	StateOrRegion string
	// PostalCode is the postal code
	PostalCode string
	// CountryCode is the two-letter country code
	CountryCode string
	// Phone is the recipient phone number
	Phone string
}

// Order represents an order snapshot fetched from Amazon MWS. It is
// immutable once fetched and is not persisted; line items are fetched
// lazily through the gateway.
type Order struct {
	// AmazonOrderID is the order ID on Amazon MWS
	AmazonOrderID string `json:"AmazonOrderId" validate:"required"`
	// Status is the order status on Amazon MWS at fetch time
	Status OrderStatus `json:"OrderStatus" validate:"required"`
	// PurchaseDate is the RFC 3339 time the order was placed
	PurchaseDate string `json:"PurchaseDate"`
	// LastUpdateDate is the RFC 3339 time the order last changed
	LastUpdateDate string `json:"LastUpdateDate"`
	// BuyerName is the buyer's full name
	BuyerName string `json:"BuyerName" validate:"required"`
	// BuyerEmail is the buyer's anonymized marketplace email
	BuyerEmail string `json:"BuyerEmail" validate:"required"`
	// ShippingAddress is the delivery address
	ShippingAddress *Address `json:"ShippingAddress" validate:"required"`
	// SalesChannel is the marketplace sales channel
	SalesChannel string `json:"SalesChannel"`
	// FulfillmentChannel indicates merchant or Amazon fulfillment
	FulfillmentChannel string `json:"FulfillmentChannel"`
	// CurrencyCode is the order currency
	CurrencyCode string `json:"CurrencyCode"`
	// OrderTotal is the total the buyer paid
	OrderTotal *Money `json:"OrderTotal"`
}

// OrderItem represents a line item of a remote order
type OrderItem struct {
	// OrderItemID is the line item ID on Amazon MWS
	OrderItemID string `json:"OrderItemId" validate:"required"`
	// SellerSKU is the seller SKU, resolved to a local catalog variation
	SellerSKU string `json:"SellerSKU" validate:"required"`
	// Title is the listing title at purchase time
	Title string `json:"Title"`
	// QuantityOrdered is the ordered quantity
	QuantityOrdered int64 `json:"QuantityOrdered" validate:"required"`
	// ItemPrice is the total price for the line (not per unit)
	ItemPrice *Money `json:"ItemPrice" validate:"required"`
	// PromotionDiscount is the promotion discount for the line, if any
	PromotionDiscount *Money `json:"PromotionDiscount"`
	// ShippingPrice is the shipping charge for the line, if any
	ShippingPrice *Money `json:"ShippingPrice"`
	// ShippingDiscount is the shipping discount for the line, if any
	ShippingDiscount *Money `json:"ShippingDiscount"`
}
