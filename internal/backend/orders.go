package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/go_market/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	PromotionID *int64          `json:"promotion_id,omitempty"`
}

type CreateOrderRequest struct {
	Items         []OrderLine          `json:"items"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	IsPay         bool                 `json:"is_pay"`
}

type UpdateOrderStatusRequest struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type UpdateBillStatusRequest struct {
	OrderID       int64                `json:"order_id"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

// NewCreateOrderRequest converts a priced order into the payload of POST /orders.
// Lines carry the unit price after promotions.
func NewCreateOrderRequest(order *domain.Order) CreateOrderRequest {
	lines := make([]OrderLine, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, OrderLine{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Price:       it.UnitPrice,
			PromotionID: it.PromotionID,
		})
	}
	return CreateOrderRequest{
		Items:         lines,
		PaymentMethod: order.PaymentMethod,
		IsPay:         order.PaymentStatus == domain.PaymentStatusCompleted,
	}
}

// CreateOrder posts a new order. idempotencyKey is sent as the Idempotency-Key header so a
// repeated submission of the same checkout is recognised by the backend.
func (c *Client) CreateOrder(ctx context.Context, idempotencyKey string, req CreateOrderRequest) (*Result, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("order has no items")
	}
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set("Idempotency-Key", idempotencyKey)
	}
	return c.send(ctx, http.MethodPost, "/orders", header, req)
}

// SubmitOrder sends order with CreateOrder.
func (c *Client) SubmitOrder(ctx context.Context, idempotencyKey string, order *domain.Order) error {
	_, err := c.CreateOrder(ctx, idempotencyKey, NewCreateOrderRequest(order))
	return err
}

// UpdateOrderStatus and UpdateBillStatus serve admin and fulfilment tooling. The storefront
// checkout never changes an order after it is placed.
func (c *Client) UpdateOrderStatus(ctx context.Context, req UpdateOrderStatusRequest) (*Result, error) {
	return c.send(ctx, http.MethodPut, "/orders", nil, req)
}

func (c *Client) UpdateBillStatus(ctx context.Context, req UpdateBillStatusRequest) (*Result, error) {
	return c.send(ctx, http.MethodPut, "/orders/bill", nil, req)
}
