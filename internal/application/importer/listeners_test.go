package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/application/addressing"
	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/extension"
	"github.com/amws/backend/internal/domain/order"
	"github.com/amws/backend/internal/infrastructure/config"
	"github.com/amws/backend/internal/infrastructure/hooks"
)

type listenersFixture struct {
	profiles  *memProfiles
	bus       *hooks.InMemoryBus
	listeners *Listeners
}

func newListenersFixture(profileCfg config.ProfileConfig) *listenersFixture {
	profiles := &memProfiles{}
	bus := hooks.NewInMemoryBus(zap.NewNop())
	listeners := NewListeners(profileCfg, addressing.NewTranslator(false), profiles, bus, zap.NewNop())
	listeners.Register(bus)

	return &listenersFixture{profiles: profiles, bus: bus, listeners: listeners}
}

func shippingProfileConfig() config.ProfileConfig {
	return config.ProfileConfig{Status: true, Source: config.ProfileSourceShipping}
}

func TestListeners_AttachBillingProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("builds profile from shipping address", func(t *testing.T) {
		f := newListenersFixture(shippingProfileConfig())
		remote := testRemoteOrder("100-001")
		local := &order.Order{ID: uuid.New()}

		hc := &extension.HookContext{RemoteOrder: &remote, Order: local}
		f.bus.Publish(ctx, extension.OrderCreate, hc)

		require.NotNil(t, local.BillingProfileID)
		require.Len(t, f.profiles.created, 1)
		profile := f.profiles.created[0]
		assert.Equal(t, *local.BillingProfileID, profile.ID)
		assert.Equal(t, order.DefaultProfileType, profile.Type)
		assert.Equal(t, uuid.Nil, profile.OwnerID)
		assert.Equal(t, "US", profile.Address.CountryCode)
		assert.Equal(t, "Springfield", profile.Address.Locality)
		assert.Equal(t, "John", profile.Name.GivenName)
		assert.Equal(t, "Smith", profile.Name.FamilyName)
	})

	t.Run("disabled config creates nothing", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{Status: false, Source: config.ProfileSourceShipping})
		remote := testRemoteOrder("100-002")
		local := &order.Order{ID: uuid.New()}

		f.bus.Publish(ctx, extension.OrderCreate, &extension.HookContext{RemoteOrder: &remote, Order: local})

		assert.Nil(t, local.BillingProfileID)
		assert.Empty(t, f.profiles.created)
	})

	t.Run("existing profile is kept", func(t *testing.T) {
		f := newListenersFixture(shippingProfileConfig())
		remote := testRemoteOrder("100-003")
		existing := uuid.New()
		local := &order.Order{ID: uuid.New(), BillingProfileID: &existing}

		f.bus.Publish(ctx, extension.OrderCreate, &extension.HookContext{RemoteOrder: &remote, Order: local})

		assert.Equal(t, existing, *local.BillingProfileID)
		assert.Empty(t, f.profiles.created)
	})

	t.Run("custom source uses the configured address", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{
			Status: true,
			Source: config.ProfileSourceCustom,
			CustomAddress: config.CustomAddressConfig{
				CountryCode:  "DE",
				Locality:     "Berlin",
				PostalCode:   "10115",
				AddressLine1: "Invalidenstr. 1",
			},
		})
		remote := testRemoteOrder("100-004")
		local := &order.Order{ID: uuid.New()}

		f.bus.Publish(ctx, extension.OrderCreate, &extension.HookContext{RemoteOrder: &remote, Order: local})

		require.Len(t, f.profiles.created, 1)
		assert.Equal(t, "DE", f.profiles.created[0].Address.CountryCode)
		assert.Equal(t, "Berlin", f.profiles.created[0].Address.Locality)
		assert.Empty(t, f.profiles.created[0].Name.FamilyName)
	})

	t.Run("custom source with empty address creates nothing", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{Status: true, Source: config.ProfileSourceCustom})
		remote := testRemoteOrder("100-005")
		local := &order.Order{ID: uuid.New()}

		f.bus.Publish(ctx, extension.OrderCreate, &extension.HookContext{RemoteOrder: &remote, Order: local})

		assert.Nil(t, local.BillingProfileID)
		assert.Empty(t, f.profiles.created)
	})
}

func TestListeners_AssignOrderNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("number is set from the order id and a re-save requested", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{})
		local := &order.Order{ID: uuid.New()}

		hc := &extension.HookContext{Order: local}
		f.bus.Publish(ctx, extension.OrderInsert, hc)

		assert.Equal(t, local.ID.String(), local.Number)
		assert.True(t, hc.SaveRequested())
	})

	t.Run("existing number is kept", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{})
		local := &order.Order{ID: uuid.New(), Number: "42"}

		f.bus.Publish(ctx, extension.OrderInsert, &extension.HookContext{Order: local})

		assert.Equal(t, "42", local.Number)
	})
}

func TestListeners_CreateShipment(t *testing.T) {
	ctx := context.Background()

	t.Run("shipment covers all items with a shipping profile", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{})
		remote := testRemoteOrder("100-006")

		local := &order.Order{ID: uuid.New()}
		local.AddItem(order.Item{
			ID:           uuid.New(),
			OrderID:      local.ID,
			Title:        "Item one",
			Quantity:     2,
			UnitPrice:    decimal.RequireFromString("10"),
			CurrencyCode: "USD",
		})

		hc := &extension.HookContext{RemoteOrder: &remote, Order: local}
		f.bus.Publish(ctx, extension.OrderInsert, hc)

		require.Len(t, local.Shipments, 1)
		shipment := local.Shipments[0]
		assert.Equal(t, order.DefaultShipmentType, shipment.Type)
		assert.Equal(t, order.DefaultShipmentState, shipment.State)
		require.NotNil(t, shipment.ShippingProfileID)

		require.Len(t, shipment.Items, 1)
		assert.Equal(t, local.Items[0].ID, shipment.Items[0].OrderItemID)
		assert.Equal(t, int64(2), shipment.Items[0].Quantity)
		assert.True(t, shipment.Items[0].DeclaredValue.Equal(decimal.RequireFromString("20")))

		// Shipping profile was persisted even with billing disabled.
		require.Len(t, f.profiles.created, 1)
		assert.True(t, hc.SaveRequested())
	})

	t.Run("order without items gets no shipment", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{})
		remote := testRemoteOrder("100-007")
		local := &order.Order{ID: uuid.New()}

		hc := &extension.HookContext{RemoteOrder: &remote, Order: local}
		f.bus.Publish(ctx, extension.OrderInsert, hc)

		assert.Empty(t, local.Shipments)
	})

	t.Run("existing shipments are kept", func(t *testing.T) {
		f := newListenersFixture(config.ProfileConfig{})
		remote := testRemoteOrder("100-008")

		local := &order.Order{ID: uuid.New(), Shipments: []order.Shipment{{ID: uuid.New()}}}
		local.AddItem(order.Item{ID: uuid.New(), Quantity: 1, UnitPrice: decimal.New(1, 0)})

		f.bus.Publish(ctx, extension.OrderInsert, &extension.HookContext{RemoteOrder: &remote, Order: local})

		assert.Len(t, local.Shipments, 1)
		assert.Empty(t, f.profiles.created)
	})
}

func TestListeners_EndToEndImport(t *testing.T) {
	// Full import with the built-in listeners subscribed: the order
	// gets a billing profile, an order number and a shipment, and is
	// re-saved exactly once after OrderInsert.
	f := newOrchestratorFixture()
	profiles := &memProfiles{}

	bus := hooks.NewInMemoryBus(zap.NewNop())
	listeners := NewListeners(shippingProfileConfig(), addressing.NewTranslator(false), profiles, bus, zap.NewNop())
	listeners.Register(bus)
	f.orch.bus = bus

	remote := testRemoteOrder("100-009")
	f.variations["sku-a"] = testVariation("sku-a", "store")
	f.gateway.items[remote.AmazonOrderID] = []amws.OrderItem{testRemoteItem("i1", "sku-a", "5.00", 1)}

	local, err := f.orch.CreateOrder(context.Background(), &amws.Store{ID: "store"}, &remote)
	require.NoError(t, err)
	require.NotNil(t, local)

	assert.NotNil(t, local.BillingProfileID)
	assert.Equal(t, local.ID.String(), local.Number)
	assert.Len(t, local.Shipments, 1)
	// billing + shipping profile
	assert.Len(t, profiles.created, 2)
	// item save plus exactly one hook-requested re-save
	assert.Equal(t, 2, f.orders.saves)
}
