// Package checkout turns a cart into an order. The cart holds book
// snapshots captured at add time; nothing money-relevant trusts those
// snapshots, every submission re-validates against live book data
// first.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fjod/go_bookshop/internal/api"
	"github.com/fjod/go_bookshop/internal/domain"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrInsufficientStock = errors.New("not enough stock for a cart item")
	ErrPriceChanged      = errors.New("book price changed since it was added")
	ErrVerifyTimeout     = errors.New("payment verification did not reach a terminal state")
)

// Backend is the slice of the API layer checkout needs.
// Consumers define this interface, not the client implementation.
type Backend interface {
	Book(ctx context.Context, id string) (*domain.Book, error)
	CreateOrder(ctx context.Context, input api.OrderInput) (*api.OrderReceipt, error)
	VerifyPayment(ctx context.Context, orderID string) ([]domain.PaymentVerification, error)
}

// Cart is the slice of the cart store checkout needs.
type Cart interface {
	Lines(ownerID string) []domain.CartLine
	Clear(ownerID string)
}

type Service struct {
	backend Backend
	cart    Cart

	// PollInterval is how often VerifyPayment re-asks the gateway.
	PollInterval time.Duration
}

func NewService(backend Backend, cart Cart) *Service {
	return &Service{
		backend:      backend,
		cart:         cart,
		PollInterval: 2 * time.Second,
	}
}

// Submit re-validates the owner's cart against live book data, submits
// the order priced from that live data, and clears the owner's cart on
// success.
func (s *Service) Submit(ctx context.Context, ownerID string, shipping domain.ShippingAddress, paymentMethod string) (*api.OrderReceipt, error) {
	lines := s.cart.Lines(ownerID)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		live, err := s.backend.Book(ctx, line.Book.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch %q: %w", line.Book.Title, err)
		}

		if live.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %q has %d left, cart wants %d",
				ErrInsufficientStock, live.Title, live.Stock, line.Quantity)
		}
		if live.EffectivePrice() != line.Book.EffectivePrice() {
			return nil, fmt.Errorf("%w: %q is now %.2f, was %.2f",
				ErrPriceChanged, live.Title, live.EffectivePrice(), line.Book.EffectivePrice())
		}

		items = append(items, domain.OrderItem{
			BookID:   live.ID,
			Title:    live.Title,
			Price:    live.EffectivePrice(),
			Quantity: line.Quantity,
			Discount: live.Discount,
		})
	}

	receipt, err := s.backend.CreateOrder(ctx, api.OrderInput{
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   paymentMethod,
	})
	if err != nil {
		return nil, err
	}

	s.cart.Clear(ownerID)
	return receipt, nil
}

// AwaitPayment polls the verify endpoint until the gateway payload
// reports a terminal state or ctx expires. Transient poll failures are
// logged and ignored; the gateway's HTTP status carries no meaning
// while it is settling.
func (s *Service) AwaitPayment(ctx context.Context, orderID string) (*domain.PaymentVerification, error) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		verifications, err := s.backend.VerifyPayment(ctx, orderID)
		if err != nil {
			log.Printf("checkout: verify poll failed: %v", err)
		}
		for i := range verifications {
			if verifications[i].Terminal() {
				return &verifications[i], nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ErrVerifyTimeout
		case <-ticker.C:
		}
	}
}
