package importer

import (
	"context"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/shared"
)

// ImportedLookup answers which remote order IDs already have a local
// order in a given store
type ImportedLookup interface {
	// ImportedRemoteIDs returns the subset of remoteIDs that already
	// have an order in the given store
	ImportedRemoteIDs(ctx context.Context, storeID string, remoteIDs []string) ([]string, error)
}

// FilterEngine builds remote fetch criteria and applies local filters
// to already-fetched orders
type FilterEngine struct {
	lookup ImportedLookup
}

// NewFilterEngine creates a filter engine backed by the given
// existence lookup
func NewFilterEngine(lookup ImportedLookup) *FilterEngine {
	return &FilterEngine{lookup: lookup}
}

// BuildCriteria validates fetch options and produces remote filter
// criteria
func (e *FilterEngine) BuildCriteria(opts amws.FilterOptions) (amws.FilterCriteria, error) {
	return amws.BuildCriteria(opts)
}

// Apply runs the post-fetch filters in order: status subset, import
// state, then result limit
func (e *FilterEngine) Apply(ctx context.Context, storeID string, orders []amws.Order, opts amws.PostFilterOptions) ([]amws.Order, error) {
	orders = FilterByStatus(orders, opts.Statuses)

	orders, err := e.FilterByImportState(ctx, storeID, orders, opts.ImportState)
	if err != nil {
		return nil, err
	}

	return FilterByLimit(orders, opts.Limit), nil
}

// FilterByStatus keeps orders whose status is in the given set. An
// empty set keeps everything.
func FilterByStatus(orders []amws.Order, statuses []amws.OrderStatus) []amws.Order {
	if len(statuses) == 0 {
		return orders
	}

	wanted := make(map[amws.OrderStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	kept := make([]amws.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := wanted[o.Status]; ok {
			kept = append(kept, o)
		}
	}
	return kept
}

// FilterByImportState keeps orders based on whether they already have
// a local order in the store. The existence check is a single batched
// query per call.
func (e *FilterEngine) FilterByImportState(ctx context.Context, storeID string, orders []amws.Order, state amws.ImportState) ([]amws.Order, error) {
	if state == amws.ImportStateAll {
		return orders, nil
	}
	if !state.IsValid() {
		return nil, shared.NewArgumentError("unsupported import state selector: %d", state)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	remoteIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		remoteIDs = append(remoteIDs, o.AmazonOrderID)
	}

	imported, err := e.lookup.ImportedRemoteIDs(ctx, storeID, remoteIDs)
	if err != nil {
		return nil, err
	}
	importedSet := make(map[string]struct{}, len(imported))
	for _, id := range imported {
		importedSet[id] = struct{}{}
	}

	kept := make([]amws.Order, 0, len(orders))
	for _, o := range orders {
		_, exists := importedSet[o.AmazonOrderID]
		if (state == amws.ImportStateImported) == exists {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

// FilterByLimit keeps the first limit orders in input order. A zero
// limit keeps everything.
func FilterByLimit(orders []amws.Order, limit int) []amws.Order {
	if limit <= 0 || limit >= len(orders) {
		return orders
	}
	return orders[:limit]
}
