package amws

import (
	"context"
	"errors"
)

// Gateway errors
var (
	// ErrGatewayUnavailable indicates the marketplace could not be reached
	ErrGatewayUnavailable = errors.New("amws: marketplace temporarily unavailable")
	// ErrGatewayRequestFailed indicates the marketplace rejected a request
	ErrGatewayRequestFailed = errors.New("amws: marketplace request failed")
	// ErrGatewayInvalidResponse indicates an unparseable marketplace response
	ErrGatewayInvalidResponse = errors.New("amws: invalid marketplace response")
	// ErrGatewayThrottled indicates the marketplace rate limited the caller
	ErrGatewayThrottled = errors.New("amws: request throttled by marketplace")
)

// OrderGateway is the port interface for fetching orders from Amazon MWS.
// It is defined in the domain layer; the concrete implementation lives in
// the infrastructure layer and is chosen at the composition root.
type OrderGateway interface {
	// FetchOrders returns the order headers matching the criteria for the
	// given store
	FetchOrders(ctx context.Context, store *Store, criteria FilterCriteria) ([]Order, error)

	// FetchOrderItems returns the line items of a remote order
	FetchOrderItems(ctx context.Context, store *Store, amazonOrderID string) ([]OrderItem, error)
}
