package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/google/uuid"
)

type OrderInput struct {
	Items           []domain.OrderItem     `json:"orderItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes,omitempty"`
}

// OrderReceipt is what order creation hands back: the order id and the
// payment gateway URL the buyer is sent to.
type OrderReceipt struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CreateOrder submits an order. Every submission carries a fresh
// idempotency key so a retried request cannot create a second order.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*OrderReceipt, error) {
	env, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/orders/create-order",
		body:        input,
		header:      map[string]string{"Idempotency-Key": uuid.New().String()},
		invalidates: []Tag{TagOrder},
	})
	if err != nil {
		return nil, err
	}

	var receipt OrderReceipt
	if err := decodeData(env, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *Client) MyOrders(ctx context.Context, params url.Values) ([]domain.Order, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/orders/my-orders",
		params:   params,
		provides: []Tag{TagOrder},
	})
	if err != nil {
		return nil, nil, err
	}

	var orders []domain.Order
	if err := decodeData(env, &orders); err != nil {
		return nil, nil, err
	}
	return orders, env.Meta, nil
}

// Orders lists every order; admin only.
func (c *Client) Orders(ctx context.Context, params url.Values) ([]domain.Order, *domain.Meta, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/orders",
		params:   params,
		provides: []Tag{TagOrder},
	})
	if err != nil {
		return nil, nil, err
	}

	var orders []domain.Order
	if err := decodeData(env, &orders); err != nil {
		return nil, nil, err
	}
	return orders, env.Meta, nil
}

func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	env, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/orders/" + id,
		provides: []Tag{TagOrder},
	})
	if err != nil {
		return nil, err
	}

	var order domain.Order
	if err := decodeData(env, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) error {
	_, err := c.do(ctx, request{
		method:      http.MethodPatch,
		path:        "/orders/" + id + "/status",
		body:        map[string]string{"status": status},
		invalidates: []Tag{TagOrder},
	})
	return err
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method:      http.MethodDelete,
		path:        "/orders/" + id,
		invalidates: []Tag{TagOrder},
	})
	return err
}

// VerifyPayment polls the gateway verification endpoint. The call is
// never cached and never surfaces 403/404 noise: while the gateway is
// still settling it answers with transient non-success statuses, and
// only the payload decides the outcome.
func (c *Client) VerifyPayment(ctx context.Context, orderID string) ([]domain.PaymentVerification, error) {
	params := url.Values{}
	params.Set("order_id", orderID)

	env, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/orders/verify",
		params:  params,
		noCache: true,
		quiet:   true,
	})
	if err != nil {
		return nil, err
	}

	var verifications []domain.PaymentVerification
	if err := decodeData(env, &verifications); err != nil {
		return nil, err
	}
	return verifications, nil
}
