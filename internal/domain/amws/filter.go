package amws

import (
	"strings"
	"time"

	"github.com/amws/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Pre-fetch filter criteria
// ---------------------------------------------------------------------------

// TimeFilterMode selects which timestamp the fetch time window applies to
type TimeFilterMode string

const (
	// TimeFilterCreated filters remote orders by creation time
	TimeFilterCreated TimeFilterMode = "created"
	// TimeFilterUpdated filters remote orders by last update time
	TimeFilterUpdated TimeFilterMode = "updated"
)

// TimeWindow is a half-open time window. After is required; Before is
// optional.
type TimeWindow struct {
	After  time.Time
	Before *time.Time
}

// FilterOptions are the caller-supplied options for building fetch criteria.
// At most one of Created and Updated may be set.
type FilterOptions struct {
	// Created filters by order creation time
	Created *TimeWindow
	// Updated filters by order last update time
	Updated *TimeWindow
	// Statuses restricts the fetch to the given statuses; must be a subset
	// of the supported statuses
	Statuses []OrderStatus
}

// FilterCriteria is the validated remote-query filter passed to the gateway
type FilterCriteria struct {
	// Mode selects the timestamp the window applies to
	Mode TimeFilterMode
	// After is the window lower bound
	After time.Time
	// Before is the optional window upper bound
	Before *time.Time
	// Statuses restricts the fetch to the given statuses
	Statuses []OrderStatus
}

// DefaultLookback is how far back the default criteria reach
const DefaultLookback = 24 * time.Hour

// DefaultFilterOptions returns the default fetch options: orders with
// statuses PartiallyShipped and Unshipped, updated during the last day.
// The two statuses must always be requested together or the marketplace
// returns no results.
func DefaultFilterOptions(now time.Time) FilterOptions {
	return FilterOptions{
		Updated: &TimeWindow{After: now.Add(-DefaultLookback)},
		Statuses: []OrderStatus{
			OrderStatusPartiallyShipped,
			OrderStatusUnshipped,
		},
	}
}

// BuildCriteria validates the given options and produces the filter criteria
// for a remote fetch. It fails with an argument error when both a creation
// and an update window are supplied, when the chosen window lacks a lower
// bound, or when a requested status is not supported.
func BuildCriteria(opts FilterOptions) (FilterCriteria, error) {
	if opts.Created != nil && opts.Updated != nil {
		return FilterCriteria{}, shared.NewArgumentError(
			"orders may be filtered by creation or update time, but not by both")
	}

	var unsupported []string
	for _, status := range opts.Statuses {
		if !status.IsValid() {
			unsupported = append(unsupported, string(status))
		}
	}
	if len(unsupported) > 0 {
		supported := make([]string, 0, len(SupportedOrderStatuses()))
		for _, status := range SupportedOrderStatuses() {
			supported = append(supported, string(status))
		}
		return FilterCriteria{}, shared.NewArgumentError(
			"unsupported order statuses requested (%s); supported statuses are: %s",
			strings.Join(unsupported, ", "), strings.Join(supported, ", "))
	}

	criteria := FilterCriteria{Statuses: opts.Statuses}

	switch {
	case opts.Created != nil:
		criteria.Mode = TimeFilterCreated
		criteria.After = opts.Created.After
		criteria.Before = opts.Created.Before
	case opts.Updated != nil:
		criteria.Mode = TimeFilterUpdated
		criteria.After = opts.Updated.After
		criteria.Before = opts.Updated.Before
	default:
		return criteria, nil
	}

	if criteria.After.IsZero() {
		return FilterCriteria{}, shared.NewArgumentError(
			"the time the orders were %s after is required in order to filter orders by time",
			criteria.Mode)
	}

	return criteria, nil
}

// ---------------------------------------------------------------------------
// Post-fetch filter options
// ---------------------------------------------------------------------------

// ImportState selects orders based on whether a corresponding local order
// already exists
type ImportState int

const (
	// ImportStateAll keeps both imported and not yet imported orders
	ImportStateAll ImportState = 0
	// ImportStateNotImported keeps only orders without a local order
	ImportStateNotImported ImportState = 1
	// ImportStateImported keeps only orders with a local order
	ImportStateImported ImportState = 2
)

// IsValid returns true if the import state selector is supported
func (s ImportState) IsValid() bool {
	switch s {
	case ImportStateAll, ImportStateNotImported, ImportStateImported:
		return true
	default:
		return false
	}
}

// PostFilterOptions filter already-fetched orders locally
type PostFilterOptions struct {
	// Statuses keeps only orders with one of the given statuses; empty
	// keeps everything
	Statuses []OrderStatus
	// ImportState selects orders by local existence
	ImportState ImportState
	// Limit caps the number of results; zero means unbounded
	Limit int
}

// DefaultPostFilterOptions returns the default post-filter: only Unshipped
// orders that have not been imported yet.
func DefaultPostFilterOptions() PostFilterOptions {
	return PostFilterOptions{
		Statuses:    []OrderStatus{OrderStatusUnshipped},
		ImportState: ImportStateNotImported,
	}
}
