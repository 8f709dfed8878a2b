package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/domain/catalog"
	"github.com/amws/backend/internal/domain/shared"
)

func testStore(id string, enabled bool) *amws.Store {
	return &amws.Store{
		ID:            id,
		Label:         "Store " + id,
		SellerID:      "seller-" + id,
		MarketplaceID: "ATVPDKIKX0DER",
		AccessKeyID:   "AKIA" + id,
		SecretKey:     "secret",
		Enabled:       enabled,
	}
}

func TestGormStoreRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormStoreRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testStore("us", true)))
	require.NoError(t, repo.Save(ctx, testStore("uk", true)))
	require.NoError(t, repo.Save(ctx, testStore("dormant", false)))

	t.Run("find by id", func(t *testing.T) {
		store, err := repo.FindByID(ctx, "us")
		require.NoError(t, err)
		assert.Equal(t, "Store us", store.Label)
		assert.True(t, store.HasCredentials())

		_, err = repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find enabled skips disabled stores", func(t *testing.T) {
		stores, err := repo.FindEnabled(ctx)
		require.NoError(t, err)
		require.Len(t, stores, 2)
		assert.Equal(t, "uk", stores[0].ID)
		assert.Equal(t, "us", stores[1].ID)
	})
}

func TestGormVariationRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormVariationRepository(db.DB)
	ctx := context.Background()

	productID := uuid.New()
	product := &catalog.Product{
		BaseEntity: shared.BaseEntity{ID: productID},
		Title:      "Widget",
		Stores:     []catalog.ProductStore{{ProductID: productID, StoreID: "us"}},
		Published:  true,
	}
	require.NoError(t, db.DB.Create(product).Error)

	require.NoError(t, repo.Save(ctx, &catalog.Variation{
		BaseEntity:    shared.BaseEntity{ID: uuid.New()},
		SKU:           "sku-blue",
		Title:         "Widget, blue",
		ProductID:     &productID,
		ExportEnabled: true,
	}))
	require.NoError(t, repo.Save(ctx, &catalog.Variation{
		BaseEntity: shared.BaseEntity{ID: uuid.New()},
		SKU:        "sku-red",
		Title:      "Widget, red",
		ProductID:  &productID,
	}))

	t.Run("by sku loads the parent product with stores", func(t *testing.T) {
		variation, err := repo.BySKU(ctx, "sku-blue")
		require.NoError(t, err)
		require.NotNil(t, variation.Product)
		assert.Equal(t, []string{"us"}, variation.Product.StoreIDs())

		_, err = repo.BySKU(ctx, "sku-missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find for export honors the flag and limit", func(t *testing.T) {
		variations, err := repo.FindForExport(ctx, 0)
		require.NoError(t, err)
		require.Len(t, variations, 1)
		assert.Equal(t, "sku-blue", variations[0].SKU)

		variations, err = repo.FindForExport(ctx, 5)
		require.NoError(t, err)
		assert.Len(t, variations, 1)
	})
}

func TestGormFeedRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormFeedRepository(db.DB)
	ctx := context.Background()

	earlier := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)

	first := &amws.Feed{
		ID: uuid.New(), Type: "_POST_PRODUCT_DATA_", StoreID: "us",
		SubmissionID: "sub-1", ProcessingStatus: amws.FeedStatusSubmitted,
		SubmittedAt: &later,
	}
	second := &amws.Feed{
		ID: uuid.New(), Type: "_POST_PRODUCT_DATA_", StoreID: "us",
		SubmissionID: "sub-2", ProcessingStatus: amws.FeedStatusInProgress,
		SubmittedAt: &earlier,
	}
	done := &amws.Feed{
		ID: uuid.New(), Type: "_POST_PRODUCT_DATA_", StoreID: "us",
		SubmissionID: "sub-3", ProcessingStatus: amws.FeedStatusDone,
	}
	for _, feed := range []*amws.Feed{first, second, done} {
		require.NoError(t, repo.Save(ctx, feed))
	}

	pending, err := repo.FindByStatuses(ctx, []amws.FeedProcessingStatus{
		amws.FeedStatusSubmitted,
		amws.FeedStatusInProgress,
	}, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	limited, err := repo.FindByStatuses(ctx, []amws.FeedProcessingStatus{
		amws.FeedStatusSubmitted,
		amws.FeedStatusInProgress,
	}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// TestGormStoreRepository_FindEnabledSQL verifies the generated SQL
// against a mocked postgres connection.
func TestGormStoreRepository_FindEnabledSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "amws_stores" WHERE enabled = $1 ORDER BY id ASC`)).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "enabled"}).
			AddRow("us", "Store us", true))

	stores, err := NewGormStoreRepository(db).FindEnabled(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, "us", stores[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
