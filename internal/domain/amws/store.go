package amws

import (
	"context"
	"time"
)

// Store represents a configured Amazon MWS seller account. Stores are
// created and edited by an operator and are read-only to the pipeline.
type Store struct {
	// ID is the machine name of the store
	ID string `gorm:"type:varchar(64);primary_key"`
	// Label is a human-friendly name for the store
	Label string `gorm:"type:varchar(200);not null"`
	// Description is an optional operator note
	Description string `gorm:"type:varchar(500)"`
	// SellerID is the Amazon MWS seller (merchant) ID
	SellerID string `gorm:"type:varchar(64);not null"`
	// MarketplaceID is the Amazon MWS marketplace ID
	MarketplaceID string `gorm:"type:varchar(64);not null"`
	// AccessKeyID is the AWS access key ID used for request signing
	AccessKeyID string `gorm:"type:varchar(128);not null"`
	// SecretKey is the AWS secret key used for request signing
	SecretKey string `gorm:"type:varchar(128);not null"`
	// AuthToken is the MWS authorization token for delegated access
	AuthToken string `gorm:"type:varchar(128)"`
	// Enabled indicates whether the pipeline processes this store
	Enabled bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for stores
func (Store) TableName() string {
	return "amws_stores"
}

// HasCredentials reports whether the store carries the credentials the
// gateway needs to sign requests.
func (s *Store) HasCredentials() bool {
	return s.SellerID != "" && s.MarketplaceID != "" && s.AccessKeyID != "" && s.SecretKey != ""
}

// StoreRepository defines the persistence interface for stores
type StoreRepository interface {
	// FindByID finds a store by its machine name
	FindByID(ctx context.Context, id string) (*Store, error)

	// FindEnabled returns all stores enabled for processing
	FindEnabled(ctx context.Context) ([]Store, error)

	// Save creates or updates a store
	Save(ctx context.Context, store *Store) error
}
