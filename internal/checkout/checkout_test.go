package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_bookshop/internal/api"
	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mu sync.Mutex

	books map[string]domain.Book

	createdOrders []api.OrderInput
	createErr     error

	verifications [][]domain.PaymentVerification
	verifyErr     error
	verifyCalls   int
}

func (m *mockBackend) Book(ctx context.Context, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, errors.New("book not found")
	}
	return &b, nil
}

func (m *mockBackend) CreateOrder(ctx context.Context, input api.OrderInput) (*api.OrderReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.createdOrders = append(m.createdOrders, input)
	return &api.OrderReceipt{
		OrderID:     "order-1",
		CheckoutURL: "https://pay.example.com/order-1",
	}, nil
}

// VerifyPayment pops the next scripted response; once the script runs
// out it keeps returning the last one.
func (m *mockBackend) VerifyPayment(ctx context.Context, orderID string) ([]domain.PaymentVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls++
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	if len(m.verifications) == 0 {
		return nil, nil
	}
	next := m.verifications[0]
	if len(m.verifications) > 1 {
		m.verifications = m.verifications[1:]
	}
	return next, nil
}

type mockCart struct {
	mu      sync.Mutex
	lines   map[string][]domain.CartLine
	cleared []string
}

func (m *mockCart) Lines(ownerID string) []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[ownerID]
}

func (m *mockCart) Clear(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, ownerID)
	m.cleared = append(m.cleared, ownerID)
}

var shipping = domain.ShippingAddress{
	Name:       "Test Reader",
	Address:    "12 Shelf Lane",
	City:       "Booktown",
	PostalCode: "12345",
	Country:    "Bookland",
	Phone:      "555-0100",
}

func line(b domain.Book, qty int, owner string) domain.CartLine {
	return domain.CartLine{Book: b, Quantity: qty, OwnerID: owner, AddedAt: time.Now()}
}

func TestSubmit_EmptyCart(t *testing.T) {
	backend := &mockBackend{books: map[string]domain.Book{}}
	cart := &mockCart{lines: map[string][]domain.CartLine{}}
	svc := NewService(backend, cart)

	_, err := svc.Submit(context.Background(), "u1", shipping, "card")

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, backend.createdOrders)
}

func TestSubmit_InsufficientStock(t *testing.T) {
	snapshot := domain.Book{ID: "b1", Title: "Go Patterns", Price: 20, Stock: 5}
	live := snapshot
	live.Stock = 1

	backend := &mockBackend{books: map[string]domain.Book{"b1": live}}
	cart := &mockCart{lines: map[string][]domain.CartLine{
		"u1": {line(snapshot, 3, "u1")},
	}}
	svc := NewService(backend, cart)

	_, err := svc.Submit(context.Background(), "u1", shipping, "card")

	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, backend.createdOrders)
	assert.Empty(t, cart.cleared, "cart survives a failed submission")
}

func TestSubmit_PriceChanged(t *testing.T) {
	snapshot := domain.Book{ID: "b1", Title: "Go Patterns", Price: 20, Stock: 5}
	live := snapshot
	live.Price = 25

	backend := &mockBackend{books: map[string]domain.Book{"b1": live}}
	cart := &mockCart{lines: map[string][]domain.CartLine{
		"u1": {line(snapshot, 1, "u1")},
	}}
	svc := NewService(backend, cart)

	_, err := svc.Submit(context.Background(), "u1", shipping, "card")

	require.ErrorIs(t, err, ErrPriceChanged)
	assert.Empty(t, backend.createdOrders)
}

func TestSubmit_DiscountChangeIsAPriceChange(t *testing.T) {
	snapshot := domain.Book{ID: "b1", Title: "Go Patterns", Price: 30, Stock: 5}
	live := snapshot
	live.Discount = 20
	live.DiscountedPrice = 24

	backend := &mockBackend{books: map[string]domain.Book{"b1": live}}
	cart := &mockCart{lines: map[string][]domain.CartLine{
		"u1": {line(snapshot, 1, "u1")},
	}}
	svc := NewService(backend, cart)

	_, err := svc.Submit(context.Background(), "u1", shipping, "card")

	require.ErrorIs(t, err, ErrPriceChanged)
}

func TestSubmit_PricesOrderFromLiveData(t *testing.T) {
	plain := domain.Book{ID: "b1", Title: "Go Patterns", Price: 20, Stock: 5}
	discounted := domain.Book{
		ID: "b2", Title: "Concurrency in Practice",
		Price: 30, Discount: 20, DiscountedPrice: 24, Stock: 3,
	}

	backend := &mockBackend{books: map[string]domain.Book{
		"b1": plain,
		"b2": discounted,
	}}
	cart := &mockCart{lines: map[string][]domain.CartLine{
		"u1": {line(plain, 2, "u1"), line(discounted, 1, "u1")},
	}}
	svc := NewService(backend, cart)

	receipt, err := svc.Submit(context.Background(), "u1", shipping, "card")
	require.NoError(t, err)
	assert.Equal(t, "order-1", receipt.OrderID)
	assert.NotEmpty(t, receipt.CheckoutURL)

	require.Len(t, backend.createdOrders, 1)
	order := backend.createdOrders[0]
	require.Len(t, order.Items, 2)
	assert.Equal(t, domain.OrderItem{
		BookID: "b1", Title: "Go Patterns", Price: 20, Quantity: 2,
	}, order.Items[0])
	assert.Equal(t, domain.OrderItem{
		BookID: "b2", Title: "Concurrency in Practice", Price: 24, Quantity: 1, Discount: 20,
	}, order.Items[1])
	assert.Equal(t, shipping, order.ShippingAddress)
	assert.Equal(t, "card", order.PaymentMethod)

	assert.Equal(t, []string{"u1"}, cart.cleared, "cart cleared only after success")
	assert.Empty(t, cart.Lines("u1"))
}

func TestSubmit_CreateOrderFailureKeepsCart(t *testing.T) {
	book := domain.Book{ID: "b1", Title: "Go Patterns", Price: 20, Stock: 5}
	backend := &mockBackend{
		books:     map[string]domain.Book{"b1": book},
		createErr: errors.New("backend unavailable"),
	}
	cart := &mockCart{lines: map[string][]domain.CartLine{
		"u1": {line(book, 1, "u1")},
	}}
	svc := NewService(backend, cart)

	_, err := svc.Submit(context.Background(), "u1", shipping, "card")

	require.Error(t, err)
	assert.Empty(t, cart.cleared)
	assert.Len(t, cart.Lines("u1"), 1)
}

func TestAwaitPayment_ReturnsTerminalVerification(t *testing.T) {
	pending := domain.PaymentVerification{OrderID: "order-1", BankStatus: "Pending"}
	settled := domain.PaymentVerification{OrderID: "order-1", BankStatus: "Success"}

	backend := &mockBackend{verifications: [][]domain.PaymentVerification{
		{pending},
		{pending},
		{settled},
	}}
	svc := NewService(backend, &mockCart{})
	svc.PollInterval = 5 * time.Millisecond

	v, err := svc.AwaitPayment(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "Success", v.BankStatus)
	assert.True(t, v.Succeeded())
	assert.GreaterOrEqual(t, backend.verifyCalls, 3)
}

func TestAwaitPayment_FailedPaymentIsStillTerminal(t *testing.T) {
	backend := &mockBackend{verifications: [][]domain.PaymentVerification{
		{{OrderID: "order-1", BankStatus: "Failed"}},
	}}
	svc := NewService(backend, &mockCart{})
	svc.PollInterval = 5 * time.Millisecond

	v, err := svc.AwaitPayment(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, "Failed", v.BankStatus)
	assert.False(t, v.Succeeded())
}

func TestAwaitPayment_TimesOut(t *testing.T) {
	backend := &mockBackend{verifications: [][]domain.PaymentVerification{
		{{OrderID: "order-1", BankStatus: "Pending"}},
	}}
	svc := NewService(backend, &mockCart{})
	svc.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err := svc.AwaitPayment(ctx, "order-1")

	require.ErrorIs(t, err, ErrVerifyTimeout)
}

func TestAwaitPayment_TransientErrorsDoNotAbort(t *testing.T) {
	backend := &mockBackend{verifyErr: errors.New("no verification record yet")}
	svc := NewService(backend, &mockCart{})
	svc.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	_, err := svc.AwaitPayment(ctx, "order-1")

	require.ErrorIs(t, err, ErrVerifyTimeout)
	assert.Greater(t, backend.verifyCalls, 1, "polling continues through errors")
}
