package backend

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/doneduardo/storefront/pkg/enums"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	rpcCreateOrder     = "create_order"
	rpcGetOrderDetails = "get_order_details"
)

// OrderItemInput is one cart line as the create_order procedure expects it.
type OrderItemInput struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

// CreateOrderParams are the create_order procedure arguments.
type CreateOrderParams struct {
	CustomerName  string              `json:"p_customer_name"`
	CustomerPhone string              `json:"p_customer_phone"`
	Address       string              `json:"p_address"`
	City          string              `json:"p_city"`
	District      string              `json:"p_district"`
	Reference     string              `json:"p_reference"`
	TotalAmount   json.Number         `json:"p_total_amount"`
	PaymentMethod enums.PaymentMethod `json:"p_payment_method"`
	Items         []OrderItemInput    `json:"p_items"`
}

type CreatedOrder struct {
	ID          string `json:"id"`
	OrderNumber int64  `json:"order_number"`
}

type Order struct {
	ID            string              `json:"id"`
	OrderNumber   int64               `json:"order_number"`
	CustomerName  string              `json:"customer_name"`
	CustomerPhone string              `json:"customer_phone"`
	Address       string              `json:"address"`
	City          string              `json:"city"`
	District      string              `json:"district"`
	Reference     string              `json:"reference,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        enums.OrderStatus   `json:"status"`
	CreatedAt     *time.Time          `json:"created_at,omitempty"`
}

type OrderItem struct {
	ID                  string          `json:"id"`
	OrderID             string          `json:"order_id"`
	ProductID           string          `json:"product_id"`
	ProductNameSnapshot string          `json:"product_name_snapshot"`
	UnitPriceSnapshot   decimal.Decimal `json:"unit_price_snapshot"`
	Quantity            int             `json:"quantity"`
	Subtotal            decimal.Decimal `json:"subtotal"`
}

type OrderDetails struct {
	Order *Order      `json:"order"`
	Items []OrderItem `json:"items"`
}

// DecimalNumber renders d as a bare JSON number.
func DecimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// CreateOrder registers an order and its items in one procedure call.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (*CreatedOrder, error) {
	var created CreatedOrder
	if err := c.RPC(ctx, rpcCreateOrder, params, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "create_order returned no order id")
	}
	return &created, nil
}

// GetOrderDetails loads an order with its item snapshots.
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (*OrderDetails, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var details OrderDetails
	if err := c.RPC(ctx, rpcGetOrderDetails, map[string]string{"p_order_id": orderID}, &details); err != nil {
		return nil, err
	}
	if details.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_id": orderID})
	}
	if details.Items == nil {
		details.Items = []OrderItem{}
	}
	return &details, nil
}
