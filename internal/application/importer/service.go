package importer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/shared"
)

// ImportOptions control one import run
type ImportOptions struct {
	// Filter overrides the remote fetch options; nil uses the
	// defaults
	Filter *amws.FilterOptions
	// PostFilter overrides the local post-filter options; nil uses
	// the defaults
	PostFilter *amws.PostFilterOptions
	// Limit caps the post-filter result count per store; zero means
	// unbounded. Takes precedence over PostFilter.Limit when set.
	Limit int
	// Workers bounds the number of stores processed concurrently.
	// Zero or one processes stores sequentially.
	Workers int
}

// Summary reports the outcome of one import run
type Summary struct {
	// Stores is the number of enabled stores processed
	Stores int
	// SkippedStores is the number of stores skipped on fetch failure
	SkippedStores int
	// Imported is the number of orders created
	Imported int
	// Skipped is the number of orders skipped by validation or store
	// resolution
	Skipped int
	// Failed is the number of orders that errored during import
	Failed int
}

func (s *Summary) add(other Summary) {
	s.Stores += other.Stores
	s.SkippedStores += other.SkippedStores
	s.Imported += other.Imported
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Service runs the order import across all enabled stores
type Service struct {
	stores       amws.StoreRepository
	gateway      amws.OrderGateway
	engine       *FilterEngine
	orchestrator *Orchestrator
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates the import service
func NewService(
	stores amws.StoreRepository,
	gateway amws.OrderGateway,
	engine *FilterEngine,
	orchestrator *Orchestrator,
	logger *zap.Logger,
) *Service {
	return &Service{
		stores:       stores,
		gateway:      gateway,
		engine:       engine,
		orchestrator: orchestrator,
		logger:       logger.Named("import"),
		now:          time.Now,
	}
}

// ImportAll fetches, filters and imports orders for every enabled
// store. A fetch or transport failure skips that store only; other
// stores continue. Stores share no mutable state, so they may be
// processed by a bounded worker pool.
func (s *Service) ImportAll(ctx context.Context, opts ImportOptions) (Summary, error) {
	stores, err := s.stores.FindEnabled(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(stores) == 0 {
		s.logger.Info("no enabled stores, nothing to import")
		return Summary{}, nil
	}

	filter := amws.DefaultFilterOptions(s.now())
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	criteria, err := s.engine.BuildCriteria(filter)
	if err != nil {
		return Summary{}, err
	}

	postFilter := amws.DefaultPostFilterOptions()
	if opts.PostFilter != nil {
		postFilter = *opts.PostFilter
	}
	if opts.Limit > 0 {
		postFilter.Limit = opts.Limit
	}

	if opts.Workers > 1 {
		return s.importConcurrently(ctx, stores, criteria, postFilter, opts.Workers), nil
	}

	var total Summary
	for i := range stores {
		total.add(s.importStore(ctx, &stores[i], criteria, postFilter))
	}
	return total, nil
}

// importConcurrently processes stores with a bounded worker pool
func (s *Service) importConcurrently(ctx context.Context, stores []amws.Store, criteria amws.FilterCriteria, postFilter amws.PostFilterOptions, workers int) Summary {
	var (
		mu    sync.Mutex
		total Summary
		wg    sync.WaitGroup
	)

	jobs := make(chan *amws.Store)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for store := range jobs {
				summary := s.importStore(ctx, store, criteria, postFilter)
				mu.Lock()
				total.add(summary)
				mu.Unlock()
			}
		}()
	}

	for i := range stores {
		jobs <- &stores[i]
	}
	close(jobs)
	wg.Wait()

	return total
}

// importStore fetches, filters and imports orders for one store
func (s *Service) importStore(ctx context.Context, store *amws.Store, criteria amws.FilterCriteria, postFilter amws.PostFilterOptions) Summary {
	summary := Summary{Stores: 1}
	log := s.logger.With(zap.String("store_id", store.ID))

	remote, err := s.gateway.FetchOrders(ctx, store, criteria)
	if err != nil {
		// One bad credential must not block the remaining stores.
		log.Error("fetching orders failed, skipping store", zap.Error(err))
		summary.SkippedStores = 1
		return summary
	}

	candidates, err := s.engine.Apply(ctx, store.ID, remote, postFilter)
	if err != nil {
		log.Error("filtering orders failed, skipping store", zap.Error(err))
		summary.SkippedStores = 1
		return summary
	}

	log.Info("importing orders",
		zap.Int("fetched", len(remote)),
		zap.Int("candidates", len(candidates)),
	)

	for i := range candidates {
		local, err := s.orchestrator.CreateOrder(ctx, store, &candidates[i])
		switch {
		case shared.IsTransportError(err):
			// The marketplace stopped answering; the remaining orders
			// of this store would fail the same way.
			log.Error("marketplace unreachable, skipping store",
				zap.String("amazon_order_id", candidates[i].AmazonOrderID),
				zap.Error(err),
			)
			summary.Failed++
			summary.SkippedStores = 1
			return summary
		case err != nil:
			log.Error("importing order failed",
				zap.String("amazon_order_id", candidates[i].AmazonOrderID),
				zap.Error(err),
			)
			summary.Failed++
		case local == nil:
			summary.Skipped++
		default:
			summary.Imported++
		}
	}

	return summary
}
