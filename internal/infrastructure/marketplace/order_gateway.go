package marketplace

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amws/backend/internal/domain/amws"
)

// OrderGateway implements amws.OrderGateway against the MWS Orders
// API
type OrderGateway struct {
	client *Client
}

// NewOrderGateway creates an order gateway on the shared client
func NewOrderGateway(client *Client) *OrderGateway {
	return &OrderGateway{client: client}
}

// FetchOrders returns the order headers matching the criteria for the
// given store
func (g *OrderGateway) FetchOrders(ctx context.Context, store *amws.Store, criteria amws.FilterCriteria) ([]amws.Order, error) {
	params := map[string]string{
		"MarketplaceId.Id.1": store.MarketplaceID,
	}

	switch criteria.Mode {
	case amws.TimeFilterCreated:
		params["CreatedAfter"] = criteria.After.UTC().Format(time.RFC3339)
		if criteria.Before != nil {
			params["CreatedBefore"] = criteria.Before.UTC().Format(time.RFC3339)
		}
	case amws.TimeFilterUpdated:
		params["LastUpdatedAfter"] = criteria.After.UTC().Format(time.RFC3339)
		if criteria.Before != nil {
			params["LastUpdatedBefore"] = criteria.Before.UTC().Format(time.RFC3339)
		}
	}
	for i, status := range criteria.Statuses {
		params[fmt.Sprintf("OrderStatus.Status.%d", i+1)] = status.String()
	}

	body, err := g.client.call(ctx, store, ordersPath, ordersVersion, "ListOrders", params, nil)
	if err != nil {
		return nil, err
	}

	var resp listOrdersResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding ListOrders response: %v",
			amws.ErrGatewayInvalidResponse, err)
	}

	orders := make([]amws.Order, 0, len(resp.Result.Orders))
	for _, o := range resp.Result.Orders {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// FetchOrderItems returns the line items of a remote order
func (g *OrderGateway) FetchOrderItems(ctx context.Context, store *amws.Store, amazonOrderID string) ([]amws.OrderItem, error) {
	params := map[string]string{
		"AmazonOrderId": amazonOrderID,
	}

	body, err := g.client.call(ctx, store, ordersPath, ordersVersion, "ListOrderItems", params, nil)
	if err != nil {
		return nil, err
	}

	var resp listOrderItemsResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding ListOrderItems response: %v",
			amws.ErrGatewayInvalidResponse, err)
	}

	items := make([]amws.OrderItem, 0, len(resp.Result.Items))
	for _, item := range resp.Result.Items {
		items = append(items, item.toDomain())
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type listOrdersResponse struct {
	XMLName xml.Name         `xml:"ListOrdersResponse"`
	Result  listOrdersResult `xml:"ListOrdersResult"`
}

type listOrdersResult struct {
	Orders    []xmlOrder `xml:"Orders>Order"`
	NextToken string     `xml:"NextToken"`
}

type xmlOrder struct {
	AmazonOrderID      string     `xml:"AmazonOrderId"`
	OrderStatus        string     `xml:"OrderStatus"`
	PurchaseDate       string     `xml:"PurchaseDate"`
	LastUpdateDate     string     `xml:"LastUpdateDate"`
	BuyerName          string     `xml:"BuyerName"`
	BuyerEmail         string     `xml:"BuyerEmail"`
	SalesChannel       string     `xml:"SalesChannel"`
	FulfillmentChannel string     `xml:"FulfillmentChannel"`
	OrderTotal         *xmlMoney  `xml:"OrderTotal"`
	ShippingAddress    *xmlAddress `xml:"ShippingAddress"`
}

type xmlAddress struct {
	Name          string `xml:"Name"`
	AddressLine1  string `xml:"AddressLine1"`
	AddressLine2  string `xml:"AddressLine2"`
	AddressLine3  string `xml:"AddressLine3"`
	City          string `xml:"City"`
	StateOrRegion string `xml:"StateOrRegion"`
	PostalCode    string `xml:"PostalCode"`
	CountryCode   string `xml:"CountryCode"`
	Phone         string `xml:"Phone"`
}

type xmlMoney struct {
	Amount       string `xml:"Amount"`
	CurrencyCode string `xml:"CurrencyCode"`
}

func (m *xmlMoney) toDomain() *amws.Money {
	if m == nil {
		return nil
	}
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil
	}
	return &amws.Money{Amount: amount, CurrencyCode: m.CurrencyCode}
}

func (o xmlOrder) toDomain() amws.Order {
	status, _ := amws.OrderStatusFromRemote(o.OrderStatus)

	order := amws.Order{
		AmazonOrderID:      o.AmazonOrderID,
		Status:             status,
		PurchaseDate:       o.PurchaseDate,
		LastUpdateDate:     o.LastUpdateDate,
		BuyerName:          o.BuyerName,
		BuyerEmail:         o.BuyerEmail,
		SalesChannel:       o.SalesChannel,
		FulfillmentChannel: o.FulfillmentChannel,
		OrderTotal:         o.OrderTotal.toDomain(),
	}
	if order.Status == "" {
		// Keep unsupported statuses visible; post-filters drop them.
		order.Status = amws.OrderStatus(o.OrderStatus)
	}
	if order.OrderTotal != nil {
		order.CurrencyCode = order.OrderTotal.CurrencyCode
	}
	if o.ShippingAddress != nil {
		order.ShippingAddress = &amws.Address{
			Name:          o.ShippingAddress.Name,
			AddressLine1:  o.ShippingAddress.AddressLine1,
			AddressLine2:  o.ShippingAddress.AddressLine2,
			AddressLine3:  o.ShippingAddress.AddressLine3,
			City:          o.ShippingAddress.City,
			StateOrRegion: o.ShippingAddress.StateOrRegion,
			PostalCode:    o.ShippingAddress.PostalCode,
			CountryCode:   o.ShippingAddress.CountryCode,
			Phone:         o.ShippingAddress.Phone,
		}
	}
	return order
}

type listOrderItemsResponse struct {
	XMLName xml.Name             `xml:"ListOrderItemsResponse"`
	Result  listOrderItemsResult `xml:"ListOrderItemsResult"`
}

type listOrderItemsResult struct {
	AmazonOrderID string         `xml:"AmazonOrderId"`
	Items         []xmlOrderItem `xml:"OrderItems>OrderItem"`
}

type xmlOrderItem struct {
	OrderItemID       string    `xml:"OrderItemId"`
	SellerSKU         string    `xml:"SellerSKU"`
	Title             string    `xml:"Title"`
	QuantityOrdered   string    `xml:"QuantityOrdered"`
	ItemPrice         *xmlMoney `xml:"ItemPrice"`
	PromotionDiscount *xmlMoney `xml:"PromotionDiscount"`
	ShippingPrice     *xmlMoney `xml:"ShippingPrice"`
	ShippingDiscount  *xmlMoney `xml:"ShippingDiscount"`
}

func (i xmlOrderItem) toDomain() amws.OrderItem {
	quantity, _ := strconv.ParseInt(i.QuantityOrdered, 10, 64)

	return amws.OrderItem{
		OrderItemID:       i.OrderItemID,
		SellerSKU:         i.SellerSKU,
		Title:             i.Title,
		QuantityOrdered:   quantity,
		ItemPrice:         i.ItemPrice.toDomain(),
		PromotionDiscount: i.PromotionDiscount.toDomain(),
		ShippingPrice:     i.ShippingPrice.toDomain(),
		ShippingDiscount:  i.ShippingDiscount.toDomain(),
	}
}
