package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/amws/backend/internal/domain/amws"
)

// GormFeedRepository implements amws.FeedRepository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// Save creates or updates a feed
func (r *GormFeedRepository) Save(ctx context.Context, feed *amws.Feed) error {
	return r.db.WithContext(ctx).Save(feed).Error
}

// FindByStatuses returns feeds whose last known processing status is
// one of the given statuses, oldest submission first, capped at limit
// (0 = unbounded)
func (r *GormFeedRepository) FindByStatuses(ctx context.Context, statuses []amws.FeedProcessingStatus, limit int) ([]amws.Feed, error) {
	var feeds []amws.Feed
	query := r.db.WithContext(ctx).
		Where("processing_status IN ?", statuses).
		Order("submitted_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&feeds).Error; err != nil {
		return nil, err
	}
	return feeds, nil
}
