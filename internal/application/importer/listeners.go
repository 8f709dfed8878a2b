package importer

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/application/addressing"
	"github.com/amws/backend/internal/domain/extension"
	"github.com/amws/backend/internal/domain/order"
	"github.com/amws/backend/internal/domain/shared"
	"github.com/amws/backend/internal/infrastructure/config"
)

// Listeners holds the built-in hook listeners registered by default.
// They register at the default priority so host-specific listeners
// can run earlier and pre-empt them.
type Listeners struct {
	profileCfg config.ProfileConfig
	translator *addressing.Translator
	profiles   order.ProfileRepository
	bus        extension.Bus
	logger     *zap.Logger
}

// NewListeners creates the built-in listeners
func NewListeners(
	profileCfg config.ProfileConfig,
	translator *addressing.Translator,
	profiles order.ProfileRepository,
	bus extension.Bus,
	logger *zap.Logger,
) *Listeners {
	return &Listeners{
		profileCfg: profileCfg,
		translator: translator,
		profiles:   profiles,
		bus:        bus,
		logger:     logger.Named("listeners"),
	}
}

// Register subscribes the built-in listeners to their hook points
func (l *Listeners) Register(bus extension.Bus) {
	bus.Subscribe(extension.OrderCreate, extension.DefaultPriority, l.AttachBillingProfile)
	bus.Subscribe(extension.OrderInsert, extension.DefaultPriority, l.AssignOrderNumber)
	bus.Subscribe(extension.OrderInsert, extension.DefaultPriority, l.CreateShipment)
}

// AttachBillingProfile builds a billing profile for the order before
// its first save, from the shipping address or from the configured
// custom address. It does nothing when profile creation is disabled
// or the order already carries a profile.
func (l *Listeners) AttachBillingProfile(ctx context.Context, hc *extension.HookContext) error {
	if !l.profileCfg.Status || hc.Order == nil || hc.Order.BillingProfileID != nil {
		return nil
	}

	var addr order.Address
	var name order.Name
	switch l.profileCfg.Source {
	case config.ProfileSourceShipping:
		if hc.RemoteOrder == nil || hc.RemoteOrder.ShippingAddress == nil {
			return nil
		}
		addr, name = l.translator.Translate(*hc.RemoteOrder.ShippingAddress, hc.RemoteOrder.BuyerName)
	case config.ProfileSourceCustom:
		if l.profileCfg.CustomAddress.IsEmpty() {
			l.logger.Warn("billing profile source is custom but no custom address is configured")
			return nil
		}
		custom := l.profileCfg.CustomAddress
		addr = order.Address{
			CountryCode:        custom.CountryCode,
			AdministrativeArea: custom.AdministrativeArea,
			Locality:           custom.Locality,
			PostalCode:         custom.PostalCode,
			AddressLine1:       custom.AddressLine1,
			AddressLine2:       custom.AddressLine2,
		}
	default:
		return shared.NewConfigurationError(
			"unknown billing profile source: %s", l.profileCfg.Source)
	}

	profile, err := l.createProfile(ctx, hc, addr, name)
	if err != nil {
		return err
	}

	hc.Order.BillingProfileID = &profile.ID
	return nil
}

// createProfile persists a profile, firing the profile hook points
// around the save
func (l *Listeners) createProfile(ctx context.Context, hc *extension.HookContext, addr order.Address, name order.Name) (*order.Profile, error) {
	profile := &order.Profile{
		ID:      uuid.New(),
		Type:    order.DefaultProfileType,
		OwnerID: uuid.Nil,
		Address: addr,
		Name:    name,
	}

	createCtx := &extension.HookContext{
		Store:       hc.Store,
		RemoteOrder: hc.RemoteOrder,
		Order:       hc.Order,
		Profile:     profile,
	}
	l.bus.Publish(ctx, extension.ProfileCreate, createCtx)

	if err := l.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	insertCtx := &extension.HookContext{
		Store:       hc.Store,
		RemoteOrder: hc.RemoteOrder,
		Order:       hc.Order,
		Profile:     profile,
	}
	l.bus.Publish(ctx, extension.ProfileInsert, insertCtx)

	if insertCtx.SaveRequested() {
		if err := l.profiles.Save(ctx, profile); err != nil {
			return nil, err
		}
	}

	return profile, nil
}

// AssignOrderNumber sets the order number from the assigned order ID
// after the first save
func (l *Listeners) AssignOrderNumber(ctx context.Context, hc *extension.HookContext) error {
	if hc.Order == nil || hc.Order.Number != "" {
		return nil
	}

	hc.Order.Number = hc.Order.ID.String()
	hc.RequestSave()
	return nil
}

// CreateShipment constructs a shipment covering all order items,
// attaching a shipping profile built from the remote shipping address
func (l *Listeners) CreateShipment(ctx context.Context, hc *extension.HookContext) error {
	if hc.Order == nil || hc.Order.HasShipments() || len(hc.Order.Items) == 0 {
		return nil
	}
	if hc.RemoteOrder == nil || hc.RemoteOrder.ShippingAddress == nil {
		return nil
	}

	addr, name := l.translator.Translate(*hc.RemoteOrder.ShippingAddress, hc.RemoteOrder.BuyerName)
	profile, err := l.createProfile(ctx, hc, addr, name)
	if err != nil {
		return err
	}

	shipment := order.Shipment{
		ID:                uuid.New(),
		OrderID:           hc.Order.ID,
		Type:              order.DefaultShipmentType,
		State:             order.DefaultShipmentState,
		ShippingProfileID: &profile.ID,
	}
	for _, item := range hc.Order.Items {
		shipment.Items = append(shipment.Items, order.ShipmentItem{
			ID:            uuid.New(),
			ShipmentID:    shipment.ID,
			OrderItemID:   item.ID,
			Title:         item.Title,
			Quantity:      item.Quantity,
			DeclaredValue: item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)),
			CurrencyCode:  item.CurrencyCode,
		})
	}

	hc.Order.Shipments = append(hc.Order.Shipments, shipment)
	hc.RequestSave()
	return nil
}
