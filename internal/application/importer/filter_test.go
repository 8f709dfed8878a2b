package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/shared"
)

type stubLookup struct {
	imported []string
	err      error
}

func (s *stubLookup) ImportedRemoteIDs(ctx context.Context, storeID string, remoteIDs []string) ([]string, error) {
	return s.imported, s.err
}

func remoteOrders(ids ...string) []amws.Order {
	orders := make([]amws.Order, 0, len(ids))
	for _, id := range ids {
		orders = append(orders, amws.Order{AmazonOrderID: id, Status: amws.OrderStatusUnshipped})
	}
	return orders
}

func TestFilterByStatus(t *testing.T) {
	orders := []amws.Order{
		{AmazonOrderID: "1", Status: amws.OrderStatusUnshipped},
		{AmazonOrderID: "2", Status: amws.OrderStatusCanceled},
		{AmazonOrderID: "3", Status: amws.OrderStatusUnshipped},
	}

	t.Run("empty status set is the identity", func(t *testing.T) {
		assert.Equal(t, orders, FilterByStatus(orders, nil))
	})

	t.Run("keeps only matching statuses", func(t *testing.T) {
		kept := FilterByStatus(orders, []amws.OrderStatus{amws.OrderStatusUnshipped})
		require.Len(t, kept, 2)
		assert.Equal(t, "1", kept[0].AmazonOrderID)
		assert.Equal(t, "3", kept[1].AmazonOrderID)
	})
}

func TestFilterByLimit(t *testing.T) {
	orders := remoteOrders("1", "2", "3")

	t.Run("zero limit is the identity", func(t *testing.T) {
		assert.Equal(t, orders, FilterByLimit(orders, 0))
	})

	t.Run("limit larger than input is the identity", func(t *testing.T) {
		assert.Equal(t, orders, FilterByLimit(orders, 10))
	})

	t.Run("keeps the stable prefix", func(t *testing.T) {
		kept := FilterByLimit(orders, 2)
		require.Len(t, kept, 2)
		assert.Equal(t, "1", kept[0].AmazonOrderID)
		assert.Equal(t, "2", kept[1].AmazonOrderID)
	})
}

func TestFilterEngine_FilterByImportState(t *testing.T) {
	ctx := context.Background()
	orders := remoteOrders("1", "2", "3")

	t.Run("all keeps everything without a lookup", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{err: assert.AnError})

		kept, err := engine.FilterByImportState(ctx, "store", orders, amws.ImportStateAll)
		require.NoError(t, err)
		assert.Equal(t, orders, kept)
	})

	t.Run("not imported keeps absent orders", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{imported: []string{"2"}})

		kept, err := engine.FilterByImportState(ctx, "store", orders, amws.ImportStateNotImported)
		require.NoError(t, err)
		require.Len(t, kept, 2)
		assert.Equal(t, "1", kept[0].AmazonOrderID)
		assert.Equal(t, "3", kept[1].AmazonOrderID)
	})

	t.Run("imported keeps present orders", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{imported: []string{"2"}})

		kept, err := engine.FilterByImportState(ctx, "store", orders, amws.ImportStateImported)
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, "2", kept[0].AmazonOrderID)
	})

	t.Run("unsupported selector fails with an argument error", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{})

		_, err := engine.FilterByImportState(ctx, "store", orders, amws.ImportState(9))
		require.Error(t, err)
		assert.True(t, shared.IsArgumentError(err))
	})
}

func TestBuildCriteria(t *testing.T) {
	t.Run("both windows fail with an argument error", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{})
		opts := amws.DefaultFilterOptions(testNow)
		opts.Created = opts.Updated

		_, err := engine.BuildCriteria(opts)
		require.Error(t, err)
		assert.True(t, shared.IsArgumentError(err))
	})

	t.Run("missing lower bound fails with an argument error", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{})

		_, err := engine.BuildCriteria(amws.FilterOptions{Updated: &amws.TimeWindow{}})
		require.Error(t, err)
		assert.True(t, shared.IsArgumentError(err))
	})

	t.Run("defaults produce an updated-after window", func(t *testing.T) {
		engine := NewFilterEngine(&stubLookup{})

		criteria, err := engine.BuildCriteria(amws.DefaultFilterOptions(testNow))
		require.NoError(t, err)
		assert.Equal(t, amws.TimeFilterUpdated, criteria.Mode)
		assert.Equal(t, testNow.Add(-amws.DefaultLookback), criteria.After)
		assert.ElementsMatch(t, []amws.OrderStatus{
			amws.OrderStatusPartiallyShipped,
			amws.OrderStatusUnshipped,
		}, criteria.Statuses)
	})
}
