package importer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/catalog"
	"github.com/amws/backend/internal/domain/extension"
	"github.com/amws/backend/internal/domain/order"
	"github.com/amws/backend/internal/domain/shared"
)

// Orchestrator validates remote orders, resolves the owning store,
// builds the local order aggregate, invokes hook listeners and
// persists the result
type Orchestrator struct {
	gateway    amws.OrderGateway
	orders     order.OrderRepository
	variations catalog.VariationLookup
	bus        extension.Bus
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrchestrator creates an import orchestrator
func NewOrchestrator(
	gateway amws.OrderGateway,
	orders order.OrderRepository,
	variations catalog.VariationLookup,
	bus extension.Bus,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway:    gateway,
		orders:     orders,
		variations: variations,
		bus:        bus,
		validate:   newValidator(),
		logger:     logger.Named("importer"),
		now:        time.Now,
	}
}

// newValidator builds a validator that reports field names as they
// appear on the wire
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// resolvedItem pairs a validated remote item with its catalog
// variation
type resolvedItem struct {
	remote    amws.OrderItem
	variation *catalog.Variation
}

// CreateOrder imports one remote order fetched through the given
// store's credentials. Orders that fail validation or cannot be
// attributed to a store are logged and skipped; a nil order with a
// nil error means the order was skipped. Non-nil errors are
// transport or persistence failures.
func (o *Orchestrator) CreateOrder(ctx context.Context, fetchStore *amws.Store, remote *amws.Order) (*order.Order, error) {
	if missing := o.missingFields(remote); len(missing) > 0 {
		o.logger.Error("cannot import order, required fields are missing",
			zap.Strings("missing_fields", missing),
			zap.Any("remote_order", remote),
		)
		return nil, nil
	}

	items, err := o.gateway.FetchOrderItems(ctx, fetchStore, remote.AmazonOrderID)
	if err != nil {
		return nil, shared.NewTransportError(
			"fetching items for order %s failed: %v", remote.AmazonOrderID, err)
	}
	if len(items) == 0 {
		// Expected for e.g. Canceled orders, which carry no items.
		o.logger.Debug("order has no items, skipping",
			zap.String("amazon_order_id", remote.AmazonOrderID),
			zap.String("order_status", remote.Status.String()),
		)
		return nil, nil
	}

	resolved, ok := o.validateItems(ctx, remote, items)
	if !ok {
		return nil, nil
	}

	storeID, ok := o.resolveStore(remote, resolved)
	if !ok {
		return nil, nil
	}

	local := o.buildHeader(remote, storeID)

	hc := &extension.HookContext{
		Store:       fetchStore,
		RemoteOrder: remote,
		Order:       local,
	}
	o.bus.Publish(ctx, extension.OrderCreate, hc)

	if err := o.orders.Create(ctx, local); err != nil {
		return nil, shared.NewDataError(
			"saving order %s failed: %v", remote.AmazonOrderID, err)
	}

	for _, ri := range resolved {
		item, err := o.buildItem(local, ri)
		if err != nil {
			o.logger.Error("cannot build order item",
				zap.String("amazon_order_id", remote.AmazonOrderID),
				zap.String("order_item_id", ri.remote.OrderItemID),
				zap.Error(err),
			)
			continue
		}

		itemCtx := &extension.HookContext{
			Store:       fetchStore,
			RemoteOrder: remote,
			RemoteItem:  &ri.remote,
			Order:       local,
			Item:        item,
		}
		o.bus.Publish(ctx, extension.OrderItemCreate, itemCtx)

		local.AddItem(*item)
	}

	if err := o.orders.Save(ctx, local); err != nil {
		return nil, shared.NewDataError(
			"saving items of order %s failed: %v", remote.AmazonOrderID, err)
	}

	insertCtx := &extension.HookContext{
		Store:       fetchStore,
		RemoteOrder: remote,
		Order:       local,
	}
	o.bus.Publish(ctx, extension.OrderInsert, insertCtx)

	if insertCtx.SaveRequested() {
		if err := o.orders.Save(ctx, local); err != nil {
			return nil, shared.NewDataError(
				"re-saving order %s failed: %v", remote.AmazonOrderID, err)
		}
	}

	o.logger.Info("order imported",
		zap.String("amazon_order_id", remote.AmazonOrderID),
		zap.String("store_id", storeID),
		zap.String("order_id", local.ID.String()),
		zap.Int("item_count", len(local.Items)),
	)
	return local, nil
}

// missingFields returns the wire names of required header fields that
// are absent
func (o *Orchestrator) missingFields(remote *amws.Order) []string {
	err := o.validate.Struct(remote)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	missing := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		missing = append(missing, ve.Field())
	}
	return missing
}

// validateItems checks every item for required fields and a known
// SKU. Validation does not short-circuit: every invalid item is
// logged. The order is importable only when all items are valid.
func (o *Orchestrator) validateItems(ctx context.Context, remote *amws.Order, items []amws.OrderItem) ([]resolvedItem, bool) {
	resolved := make([]resolvedItem, 0, len(items))
	valid := true

	for _, item := range items {
		if err := o.validate.Struct(item); err != nil {
			var verrs validator.ValidationErrors
			missing := []string{err.Error()}
			if errors.As(err, &verrs) {
				missing = missing[:0]
				for _, ve := range verrs {
					missing = append(missing, ve.Field())
				}
			}
			o.logger.Error("cannot import order item, required fields are missing",
				zap.String("amazon_order_id", remote.AmazonOrderID),
				zap.Strings("missing_fields", missing),
				zap.Any("remote_item", item),
			)
			valid = false
			continue
		}

		variation, err := o.variations.BySKU(ctx, item.SellerSKU)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				o.logger.Error("cannot import order item, no known product variation for SKU",
					zap.String("amazon_order_id", remote.AmazonOrderID),
					zap.String("order_item_id", item.OrderItemID),
					zap.String("seller_sku", item.SellerSKU),
				)
			} else {
				o.logger.Error("looking up product variation failed",
					zap.String("amazon_order_id", remote.AmazonOrderID),
					zap.String("seller_sku", item.SellerSKU),
					zap.Error(err),
				)
			}
			valid = false
			continue
		}

		resolved = append(resolved, resolvedItem{remote: item, variation: variation})
	}

	return resolved, valid
}

// resolveStore determines the owning store: the first store
// associated with the parent product of any item's variation. A
// variation without a parent product is a hard data error for the
// whole order.
func (o *Orchestrator) resolveStore(remote *amws.Order, resolved []resolvedItem) (string, bool) {
	for _, ri := range resolved {
		if ri.variation.Product == nil {
			o.logger.Error("cannot determine store, product variation has no parent product",
				zap.String("amazon_order_id", remote.AmazonOrderID),
				zap.String("seller_sku", ri.remote.SellerSKU),
				zap.String("variation_id", ri.variation.ID.String()),
			)
			return "", false
		}
		if storeIDs := ri.variation.Product.StoreIDs(); len(storeIDs) > 0 {
			return storeIDs[0], true
		}
	}

	o.logger.Info("cannot determine store, no item's product belongs to a store, skipping order",
		zap.String("amazon_order_id", remote.AmazonOrderID),
	)
	return "", false
}

// buildHeader builds the local order header. Timestamps default to
// now but prefer the remote purchase and last-update dates when they
// parse.
func (o *Orchestrator) buildHeader(remote *amws.Order, storeID string) *order.Order {
	now := o.now()

	created := now
	if t, err := time.Parse(time.RFC3339, remote.PurchaseDate); err == nil {
		created = t
	}
	changed := now
	if t, err := time.Parse(time.RFC3339, remote.LastUpdateDate); err == nil {
		changed = t
	}

	return &order.Order{
		ID:          uuid.New(),
		Type:        order.DefaultType,
		RemoteID:    remote.AmazonOrderID,
		StoreID:     storeID,
		State:       order.DefaultState,
		Email:       remote.BuyerEmail,
		CreatedAt:   created,
		ChangedAt:   changed,
		PlacedAt:    created,
		CompletedAt: created,
	}
}

// buildItem builds a local order item from a resolved remote item
func (o *Orchestrator) buildItem(local *order.Order, ri resolvedItem) (*order.Item, error) {
	unitPrice, err := UnitPrice(ri.remote)
	if err != nil {
		return nil, err
	}

	title := ri.remote.Title
	if title == "" {
		title = ri.variation.Title
	}

	return &order.Item{
		ID:           uuid.New(),
		OrderID:      local.ID,
		Type:         order.DefaultItemType,
		RemoteID:     ri.remote.OrderItemID,
		VariationID:  ri.variation.ID,
		Title:        title,
		Quantity:     ri.remote.QuantityOrdered,
		UnitPrice:    unitPrice,
		CurrencyCode: ri.remote.ItemPrice.CurrencyCode,
	}, nil
}

// UnitPrice derives the per-unit price of a remote item: the item
// price minus the promotion discount, divided by the quantity. The
// division is exact; currency-specific rounding is left to
// persistence.
func UnitPrice(item amws.OrderItem) (decimal.Decimal, error) {
	if item.ItemPrice == nil {
		return decimal.Zero, shared.NewDataError("item %s has no price", item.OrderItemID)
	}
	if item.QuantityOrdered <= 0 {
		return decimal.Zero, shared.NewDataError("item %s has no quantity", item.OrderItemID)
	}

	discount := decimal.Zero
	if item.PromotionDiscount != nil {
		discount = item.PromotionDiscount.Amount
	}

	return item.ItemPrice.Amount.Sub(discount).
		Div(decimal.NewFromInt(item.QuantityOrdered)), nil
}
