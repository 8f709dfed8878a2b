// Package export submits catalog data for marketplace listing.
package export

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/catalog"
)

// ProductFeedType is the marketplace feed type for product data
const ProductFeedType = "_POST_PRODUCT_DATA_"

// envelope is the product feed document submitted to the marketplace
type envelope struct {
	XMLName  xml.Name  `xml:"AmazonEnvelope"`
	Merchant string    `xml:"Header>MerchantIdentifier"`
	Type     string    `xml:"MessageType"`
	Messages []message `xml:"Message"`
}

type message struct {
	ID    int     `xml:"MessageID"`
	SKU   string  `xml:"Product>SKU"`
	Title string  `xml:"Product>DescriptionData>Title"`
}

// Service submits exportable catalog variations as product feeds
type Service struct {
	variations catalog.VariationRepository
	stores     amws.StoreRepository
	feeds      amws.FeedRepository
	gateway    amws.FeedGateway
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a product export service
func NewService(
	variations catalog.VariationRepository,
	stores amws.StoreRepository,
	feeds amws.FeedRepository,
	gateway amws.FeedGateway,
	logger *zap.Logger,
) *Service {
	return &Service{
		variations: variations,
		stores:     stores,
		feeds:      feeds,
		gateway:    gateway,
		logger:     logger.Named("export"),
		now:        time.Now,
	}
}

// ExportProducts submits the variations marked for export to every
// enabled store, capped at limit variations (zero is unbounded). It
// returns the number of feeds submitted. A submission failure for one
// store does not block the remaining stores.
func (s *Service) ExportProducts(ctx context.Context, limit int) (int, error) {
	variations, err := s.variations.FindForExport(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(variations) == 0 {
		s.logger.Info("no variations marked for export")
		return 0, nil
	}

	stores, err := s.stores.FindEnabled(ctx)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for i := range stores {
		store := &stores[i]
		exportable := variationsForStore(variations, store.ID)
		if len(exportable) == 0 {
			continue
		}

		content, err := buildEnvelope(store, exportable)
		if err != nil {
			s.logger.Error("building product feed failed, skipping store",
				zap.String("store_id", store.ID),
				zap.Error(err),
			)
			continue
		}

		submissionID, err := s.gateway.SubmitFeed(ctx, store, ProductFeedType, content)
		if err != nil {
			s.logger.Error("submitting product feed failed, skipping store",
				zap.String("store_id", store.ID),
				zap.Error(err),
			)
			continue
		}

		now := s.now()
		feed := &amws.Feed{
			ID:               uuid.New(),
			Type:             ProductFeedType,
			StoreID:          store.ID,
			SubmissionID:     submissionID,
			ProcessingStatus: amws.FeedStatusSubmitted,
			SubmittedAt:      &now,
		}
		if err := s.feeds.Save(ctx, feed); err != nil {
			s.logger.Error("recording submitted feed failed",
				zap.String("store_id", store.ID),
				zap.String("submission_id", submissionID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("product feed submitted",
			zap.String("store_id", store.ID),
			zap.String("submission_id", submissionID),
			zap.Int("variation_count", len(exportable)),
		)
		submitted++
	}

	return submitted, nil
}

// variationsForStore keeps variations whose parent product is
// associated with the store
func variationsForStore(variations []catalog.Variation, storeID string) []catalog.Variation {
	kept := make([]catalog.Variation, 0, len(variations))
	for _, v := range variations {
		if v.Product == nil {
			continue
		}
		for _, id := range v.Product.StoreIDs() {
			if id == storeID {
				kept = append(kept, v)
				break
			}
		}
	}
	return kept
}

// buildEnvelope renders the product feed document for a store
func buildEnvelope(store *amws.Store, variations []catalog.Variation) ([]byte, error) {
	env := envelope{
		Merchant: store.SellerID,
		Type:     "Product",
	}
	for i, v := range variations {
		env.Messages = append(env.Messages, message{
			ID:    i + 1,
			SKU:   v.SKU,
			Title: v.Title,
		})
	}
	return xml.MarshalIndent(env, "", "  ")
}
