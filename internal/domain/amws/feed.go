package amws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ---------------------------------------------------------------------------
// Feed
// ---------------------------------------------------------------------------

// FeedProcessingStatus represents the processing status of a feed on the
// marketplace
type FeedProcessingStatus string

const (
	// FeedStatusSubmitted indicates the feed was submitted and is queued
	FeedStatusSubmitted FeedProcessingStatus = "_SUBMITTED_"
	// FeedStatusInProgress indicates the marketplace is processing the feed
	FeedStatusInProgress FeedProcessingStatus = "_IN_PROGRESS_"
	// FeedStatusDone indicates processing finished and a result is available
	FeedStatusDone FeedProcessingStatus = "_DONE_"
	// FeedStatusCancelled indicates the feed was cancelled before processing
	FeedStatusCancelled FeedProcessingStatus = "_CANCELLED_"
)

// IsFinal returns true if the status is a terminal state
func (s FeedProcessingStatus) IsFinal() bool {
	return s == FeedStatusDone || s == FeedStatusCancelled
}

// Feed represents an asynchronous bulk-data submission job processed by the
// marketplace, such as a product or inventory export.
type Feed struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key"`
	// Type is the marketplace feed type, e.g. "_POST_PRODUCT_DATA_"
	Type string `gorm:"type:varchar(64);not null"`
	// StoreID is the store the feed was submitted for
	StoreID string `gorm:"type:varchar(64);not null;index"`
	// SubmissionID is the ID assigned by the marketplace at submission
	SubmissionID string `gorm:"type:varchar(64);index"`
	// ProcessingStatus is the last known marketplace processing status
	ProcessingStatus FeedProcessingStatus `gorm:"type:varchar(32);not null"`
	// SubmittedAt is when the feed was submitted
	SubmittedAt *time.Time
	// StartedProcessingAt is when the marketplace started processing
	StartedProcessingAt *time.Time
	// CompletedProcessingAt is when the marketplace finished processing
	CompletedProcessingAt *time.Time
	// Result carries the processing report fetched after completion
	Result datatypes.JSON

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for feeds
func (Feed) TableName() string {
	return "amws_feeds"
}

// feedResult is the JSON envelope the processing report is stored in.
// Marketplace reports are XML or tab-delimited text, so the raw report
// cannot go into the JSON column as-is.
type feedResult struct {
	Report string `json:"report"`
}

// SetResult stores the raw processing report
func (f *Feed) SetResult(report []byte) error {
	payload, err := json.Marshal(feedResult{Report: string(report)})
	if err != nil {
		return err
	}
	f.Result = datatypes.JSON(payload)
	return nil
}

// Report returns the raw processing report, or nil when none has been
// fetched yet
func (f *Feed) Report() ([]byte, error) {
	if len(f.Result) == 0 {
		return nil, nil
	}
	var r feedResult
	if err := json.Unmarshal(f.Result, &r); err != nil {
		return nil, err
	}
	return []byte(r.Report), nil
}

// FeedRepository defines the persistence interface for feeds
type FeedRepository interface {
	// Save creates or updates a feed
	Save(ctx context.Context, feed *Feed) error

	// FindByStatuses returns feeds whose last known processing status is one
	// of the given statuses, oldest first, capped at limit (0 = unbounded)
	FindByStatuses(ctx context.Context, statuses []FeedProcessingStatus, limit int) ([]Feed, error)
}

// FeedStatus is a marketplace-reported status snapshot for one submission
type FeedStatus struct {
	// SubmissionID identifies the submission
	SubmissionID string
	// ProcessingStatus is the current processing status
	ProcessingStatus FeedProcessingStatus
	// StartedProcessingAt is when processing started, if it has
	StartedProcessingAt *time.Time
	// CompletedProcessingAt is when processing completed, if it has
	CompletedProcessingAt *time.Time
}

// FeedGateway is the port interface for the marketplace feed API
type FeedGateway interface {
	// SubmitFeed submits feed content of the given type and returns the
	// marketplace submission ID
	SubmitFeed(ctx context.Context, store *Store, feedType string, content []byte) (string, error)

	// FetchStatuses returns the current processing status of the given
	// submissions
	FetchStatuses(ctx context.Context, store *Store, submissionIDs []string) ([]FeedStatus, error)

	// FetchResult returns the processing report for a completed submission
	FetchResult(ctx context.Context, store *Store, submissionID string) ([]byte, error)
}
