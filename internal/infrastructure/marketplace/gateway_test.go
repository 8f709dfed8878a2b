package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/amws"
	"github.com/amws/backend/internal/infrastructure/config"
)

const listOrdersBody = `<?xml version="1.0"?>
<ListOrdersResponse xmlns="https://mws.amazonservices.com/Orders/2013-09-01">
  <ListOrdersResult>
    <Orders>
      <Order>
        <AmazonOrderId>902-3159896-1390916</AmazonOrderId>
        <OrderStatus>Unshipped</OrderStatus>
        <PurchaseDate>2023-05-01T10:00:00Z</PurchaseDate>
        <LastUpdateDate>2023-05-02T10:00:00Z</LastUpdateDate>
        <BuyerName>John Smith</BuyerName>
        <BuyerEmail>buyer@marketplace.example</BuyerEmail>
        <OrderTotal>
          <Amount>49.99</Amount>
          <CurrencyCode>USD</CurrencyCode>
        </OrderTotal>
        <ShippingAddress>
          <Name>John Smith</Name>
          <AddressLine1>1 Main St</AddressLine1>
          <AddressLine3>Apt 2</AddressLine3>
          <City>Springfield</City>
          <StateOrRegion>IL</StateOrRegion>
          <PostalCode>62701</PostalCode>
          <CountryCode>US</CountryCode>
        </ShippingAddress>
      </Order>
    </Orders>
  </ListOrdersResult>
</ListOrdersResponse>`

const listOrderItemsBody = `<?xml version="1.0"?>
<ListOrderItemsResponse xmlns="https://mws.amazonservices.com/Orders/2013-09-01">
  <ListOrderItemsResult>
    <AmazonOrderId>902-3159896-1390916</AmazonOrderId>
    <OrderItems>
      <OrderItem>
        <OrderItemId>68828574383266</OrderItemId>
        <SellerSKU>sku-blue</SellerSKU>
        <Title>Widget, blue</Title>
        <QuantityOrdered>2</QuantityOrdered>
        <ItemPrice>
          <Amount>21.00</Amount>
          <CurrencyCode>USD</CurrencyCode>
        </ItemPrice>
        <PromotionDiscount>
          <Amount>1.00</Amount>
          <CurrencyCode>USD</CurrencyCode>
        </PromotionDiscount>
      </OrderItem>
    </OrderItems>
  </ListOrderItemsResult>
</ListOrderItemsResponse>`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.AmwsConfig{
		Endpoint:        server.URL,
		Timeout:         5 * time.Second,
		MaxResponseSize: 1 << 20,
	}, zap.NewNop())
	require.NoError(t, err)

	return client
}

func mwsStore() *amws.Store {
	return &amws.Store{
		ID:            "us",
		SellerID:      "SELLER123",
		MarketplaceID: "ATVPDKIKX0DER",
		AccessKeyID:   "AKIATEST",
		SecretKey:     "secret",
		AuthToken:     "amzn.mws.token",
		Enabled:       true,
	}
}

func TestOrderGateway_FetchOrders(t *testing.T) {
	var gotQuery map[string][]string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(listOrdersBody))
	})
	gateway := NewOrderGateway(client)

	after := time.Date(2023, 5, 9, 12, 0, 0, 0, time.UTC)
	orders, err := gateway.FetchOrders(context.Background(), mwsStore(), amws.FilterCriteria{
		Mode:     amws.TimeFilterUpdated,
		After:    after,
		Statuses: []amws.OrderStatus{amws.OrderStatusPartiallyShipped, amws.OrderStatusUnshipped},
	})
	require.NoError(t, err)

	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "902-3159896-1390916", o.AmazonOrderID)
	assert.Equal(t, amws.OrderStatusUnshipped, o.Status)
	assert.Equal(t, "John Smith", o.BuyerName)
	require.NotNil(t, o.ShippingAddress)
	assert.Equal(t, "Apt 2", o.ShippingAddress.AddressLine3)
	require.NotNil(t, o.OrderTotal)
	assert.True(t, o.OrderTotal.Amount.Equal(decimal.RequireFromString("49.99")))

	// Request carries the signed action parameters.
	assert.Equal(t, "ListOrders", gotQuery["Action"][0])
	assert.Equal(t, "SELLER123", gotQuery["SellerId"][0])
	assert.Equal(t, "amzn.mws.token", gotQuery["MWSAuthToken"][0])
	assert.Equal(t, "2023-05-09T12:00:00Z", gotQuery["LastUpdatedAfter"][0])
	assert.Equal(t, "PartiallyShipped", gotQuery["OrderStatus.Status.1"][0])
	assert.Equal(t, "Unshipped", gotQuery["OrderStatus.Status.2"][0])
	assert.NotEmpty(t, gotQuery["Signature"][0])
}

func TestOrderGateway_FetchOrderItems(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ListOrderItems", r.URL.Query().Get("Action"))
		assert.Equal(t, "902-3159896-1390916", r.URL.Query().Get("AmazonOrderId"))
		w.Write([]byte(listOrderItemsBody))
	})
	gateway := NewOrderGateway(client)

	items, err := gateway.FetchOrderItems(context.Background(), mwsStore(), "902-3159896-1390916")
	require.NoError(t, err)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "68828574383266", item.OrderItemID)
	assert.Equal(t, "sku-blue", item.SellerSKU)
	assert.Equal(t, int64(2), item.QuantityOrdered)
	require.NotNil(t, item.ItemPrice)
	assert.True(t, item.ItemPrice.Amount.Equal(decimal.RequireFromString("21.00")))
	require.NotNil(t, item.PromotionDiscount)
	assert.True(t, item.PromotionDiscount.Amount.Equal(decimal.RequireFromString("1.00")))
	assert.Nil(t, item.ShippingPrice)
}

func TestClient_ErrorMapping(t *testing.T) {
	t.Run("503 maps to throttled", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := NewOrderGateway(client).FetchOrders(context.Background(), mwsStore(), amws.FilterCriteria{})
		assert.ErrorIs(t, err, amws.ErrGatewayThrottled)
	})

	t.Run("non-200 maps to request failed", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`<ErrorResponse/>`))
		})

		_, err := NewOrderGateway(client).FetchOrders(context.Background(), mwsStore(), amws.FilterCriteria{})
		assert.ErrorIs(t, err, amws.ErrGatewayRequestFailed)
	})

	t.Run("malformed body maps to invalid response", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not xml`))
		})

		_, err := NewOrderGateway(client).FetchOrders(context.Background(), mwsStore(), amws.FilterCriteria{})
		assert.ErrorIs(t, err, amws.ErrGatewayInvalidResponse)
	})

	t.Run("unreachable endpoint maps to unavailable", func(t *testing.T) {
		client, err := NewClient(config.AmwsConfig{
			Endpoint:        "http://127.0.0.1:1",
			Timeout:         time.Second,
			MaxResponseSize: 1 << 20,
		}, zap.NewNop())
		require.NoError(t, err)

		_, err = NewOrderGateway(client).FetchOrders(context.Background(), mwsStore(), amws.FilterCriteria{})
		assert.ErrorIs(t, err, amws.ErrGatewayUnavailable)
	})
}

func TestFeedGateway(t *testing.T) {
	t.Run("submit feed returns the submission id", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "SubmitFeed", r.URL.Query().Get("Action"))
			assert.Equal(t, "_POST_PRODUCT_DATA_", r.URL.Query().Get("FeedType"))
			assert.NotEmpty(t, r.URL.Query().Get("ContentMD5"))
			w.Write([]byte(`<?xml version="1.0"?>
<SubmitFeedResponse>
  <SubmitFeedResult>
    <FeedSubmissionInfo>
      <FeedSubmissionId>2291326430</FeedSubmissionId>
      <FeedType>_POST_PRODUCT_DATA_</FeedType>
      <FeedProcessingStatus>_SUBMITTED_</FeedProcessingStatus>
    </FeedSubmissionInfo>
  </SubmitFeedResult>
</SubmitFeedResponse>`))
		})

		id, err := NewFeedGateway(client).SubmitFeed(context.Background(), mwsStore(), "_POST_PRODUCT_DATA_", []byte("<AmazonEnvelope/>"))
		require.NoError(t, err)
		assert.Equal(t, "2291326430", id)
	})

	t.Run("fetch statuses maps every submission", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2291326430", r.URL.Query().Get("FeedSubmissionIdList.Id.1"))
			w.Write([]byte(`<?xml version="1.0"?>
<GetFeedSubmissionListResponse>
  <GetFeedSubmissionListResult>
    <FeedSubmissionInfo>
      <FeedSubmissionId>2291326430</FeedSubmissionId>
      <FeedProcessingStatus>_DONE_</FeedProcessingStatus>
    </FeedSubmissionInfo>
  </GetFeedSubmissionListResult>
</GetFeedSubmissionListResponse>`))
		})

		statuses, err := NewFeedGateway(client).FetchStatuses(context.Background(), mwsStore(), []string{"2291326430"})
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		assert.Equal(t, amws.FeedStatusDone, statuses[0].ProcessingStatus)
	})

	t.Run("fetch result returns the raw report", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GetFeedSubmissionResult", r.URL.Query().Get("Action"))
			w.Write([]byte(`{"messages_processed":1}`))
		})

		report, err := NewFeedGateway(client).FetchResult(context.Background(), mwsStore(), "2291326430")
		require.NoError(t, err)
		assert.JSONEq(t, `{"messages_processed":1}`, string(report))
	})
}

func TestSign(t *testing.T) {
	// The signature is deterministic for a fixed query.
	query := map[string]string{
		"Action":  "ListOrders",
		"Version": "2013-09-01",
	}
	first := sign("secret", "mws.amazonservices.com", ordersPath, query)
	second := sign("secret", "mws.amazonservices.com", ordersPath, query)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)

	// A different secret yields a different signature.
	assert.NotEqual(t, first, sign("other", "mws.amazonservices.com", ordersPath, query))
}
