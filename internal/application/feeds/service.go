// Package feeds tracks the lifecycle of marketplace feed submissions.
package feeds

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
)

// Service refreshes the processing status and results of submitted
// feeds
type Service struct {
	feeds   amws.FeedRepository
	stores  amws.StoreRepository
	gateway amws.FeedGateway
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a feed service
func NewService(feeds amws.FeedRepository, stores amws.StoreRepository, gateway amws.FeedGateway, logger *zap.Logger) *Service {
	return &Service{
		feeds:   feeds,
		stores:  stores,
		gateway: gateway,
		logger:  logger.Named("feeds"),
		now:     time.Now,
	}
}

// UpdateSubmitted refreshes the processing status of feeds that are
// still in flight, capped at limit (zero is unbounded). Feeds are
// refreshed store by store so each batch uses its own credentials.
func (s *Service) UpdateSubmitted(ctx context.Context, limit int) (int, error) {
	pending, err := s.feeds.FindByStatuses(ctx, []amws.FeedProcessingStatus{
		amws.FeedStatusSubmitted,
		amws.FeedStatusInProgress,
	}, limit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	updated := 0
	for storeID, feeds := range groupByStore(pending) {
		store, err := s.stores.FindByID(ctx, storeID)
		if err != nil {
			s.logger.Error("cannot load store for feed status update",
				zap.String("store_id", storeID),
				zap.Error(err),
			)
			continue
		}

		statuses, err := s.gateway.FetchStatuses(ctx, store, submissionIDs(feeds))
		if err != nil {
			s.logger.Error("fetching feed statuses failed, skipping store",
				zap.String("store_id", storeID),
				zap.Error(err),
			)
			continue
		}

		updated += s.applyStatuses(ctx, feeds, statuses)
	}

	return updated, nil
}

// applyStatuses writes changed statuses back to the matching feeds
func (s *Service) applyStatuses(ctx context.Context, feeds []amws.Feed, statuses []amws.FeedStatus) int {
	byID := make(map[string]amws.FeedStatus, len(statuses))
	for _, status := range statuses {
		byID[status.SubmissionID] = status
	}

	updated := 0
	for i := range feeds {
		status, ok := byID[feeds[i].SubmissionID]
		if !ok || status.ProcessingStatus == feeds[i].ProcessingStatus {
			continue
		}

		feeds[i].ProcessingStatus = status.ProcessingStatus
		now := s.now()
		switch status.ProcessingStatus {
		case amws.FeedStatusInProgress:
			if feeds[i].StartedProcessingAt == nil {
				feeds[i].StartedProcessingAt = &now
			}
		case amws.FeedStatusDone, amws.FeedStatusCancelled:
			if feeds[i].CompletedProcessingAt == nil {
				feeds[i].CompletedProcessingAt = &now
			}
		}

		if err := s.feeds.Save(ctx, &feeds[i]); err != nil {
			s.logger.Error("saving feed status failed",
				zap.String("feed_id", feeds[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		updated++
	}
	return updated
}

// UpdateProcessed fetches the processing report of completed feeds
// that have no result yet, capped at limit (zero is unbounded)
func (s *Service) UpdateProcessed(ctx context.Context, limit int) (int, error) {
	done, err := s.feeds.FindByStatuses(ctx, []amws.FeedProcessingStatus{amws.FeedStatusDone}, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range done {
		if len(done[i].Result) > 0 {
			continue
		}

		store, err := s.stores.FindByID(ctx, done[i].StoreID)
		if err != nil {
			s.logger.Error("cannot load store for feed result",
				zap.String("feed_id", done[i].ID.String()),
				zap.String("store_id", done[i].StoreID),
				zap.Error(err),
			)
			continue
		}

		result, err := s.gateway.FetchResult(ctx, store, done[i].SubmissionID)
		if err != nil {
			s.logger.Error("fetching feed result failed",
				zap.String("feed_id", done[i].ID.String()),
				zap.String("submission_id", done[i].SubmissionID),
				zap.Error(err),
			)
			continue
		}

		if err := done[i].SetResult(result); err != nil {
			s.logger.Error("encoding feed result failed",
				zap.String("feed_id", done[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := s.feeds.Save(ctx, &done[i]); err != nil {
			s.logger.Error("saving feed result failed",
				zap.String("feed_id", done[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		updated++
	}

	return updated, nil
}

func groupByStore(feeds []amws.Feed) map[string][]amws.Feed {
	grouped := make(map[string][]amws.Feed)
	for _, feed := range feeds {
		grouped[feed.StoreID] = append(grouped[feed.StoreID], feed)
	}
	return grouped
}

func submissionIDs(feeds []amws.Feed) []string {
	ids := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		ids = append(ids, feed.SubmissionID)
	}
	return ids
}
