package mockapi

import (
	"net/http"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
	"github.com/go-chi/chi/v5"
)

type orderDTO struct {
	Items           []domain.OrderItem     `json:"orderItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "order has no items")
		return
	}

	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	// Replays with the same idempotency key return the original order
	// instead of creating a duplicate.
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if orderID, seen := s.idemKeys[idemKey]; seen {
			respondJSON(w, http.StatusOK, "order already placed", map[string]string{
				"orderId":     orderID,
				"checkoutUrl": "https://pay.example.com/" + orderID,
			})
			return
		}
	}

	// Decrement stock; short stock rejects the whole order.
	for _, item := range req.Items {
		b, ok := s.books[item.BookID]
		if !ok {
			respondError(w, http.StatusNotFound, "book not found: "+item.BookID)
			return
		}
		if b.Stock < item.Quantity {
			respondError(w, http.StatusConflict, "insufficient stock for "+b.Title)
			return
		}
	}

	var subtotal float64
	for _, item := range req.Items {
		s.books[item.BookID].Stock -= item.Quantity
		subtotal += item.Price * float64(item.Quantity)
	}

	now := time.Now()
	order := &domain.Order{
		ID:              newID(),
		UserID:          claims.UserID,
		OrderItems:      req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentInfo:     domain.PaymentInfo{Method: req.PaymentMethod, Status: "pending"},
		Subtotal:        subtotal,
		Total:           subtotal,
		Status:          "pending",
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.orders[order.ID] = order
	s.orderSeq = append(s.orderSeq, order.ID)
	if idemKey != "" {
		s.idemKeys[idemKey] = order.ID
	}

	respondJSON(w, http.StatusCreated, "order placed", map[string]string{
		"orderId":     order.ID,
		"checkoutUrl": "https://pay.example.com/" + order.ID,
	})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	var mine []domain.Order
	for _, id := range s.orderSeq {
		if o := s.orders[id]; o.UserID == claims.UserID {
			mine = append(mine, *o)
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "orders retrieved", mine)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	all := make([]domain.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		all = append(all, *s.orders[id])
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, "orders retrieved", all)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	o, ok := s.orders[chi.URLParam(r, "id")]
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	if o.UserID != claims.UserID && claims.Role != domain.RoleAdmin {
		respondError(w, http.StatusForbidden, "not your order")
		return
	}
	respondJSON(w, http.StatusOK, "order retrieved", o)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[chi.URLParam(r, "id")]
	if !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	o.Status = req.Status
	o.UpdatedAt = time.Now()
	respondJSON(w, http.StatusOK, "order status updated", o)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	delete(s.orders, id)
	for i, seq := range s.orderSeq {
		if seq == id {
			s.orderSeq = append(s.orderSeq[:i], s.orderSeq[i+1:]...)
			break
		}
	}
	respondJSON(w, http.StatusOK, "order deleted", nil)
}

// handleVerifyPayment mimics the gateway's polling contract: while no
// verification record exists the endpoint answers 404, which clients
// must treat as transient noise, never as a user-facing error.
func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")

	s.mu.Lock()
	v, ok := s.payments[orderID]
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "no verification record yet")
		return
	}
	respondJSON(w, http.StatusOK, "verification retrieved", []domain.PaymentVerification{*v})
}

// SettlePayment records the gateway outcome for an order. Test helper.
func (s *Server) SettlePayment(orderID, bankStatus string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[orderID] = &domain.PaymentVerification{
		OrderID:    orderID,
		Currency:   "USD",
		BankStatus: bankStatus,
		BankTrxID:  newID(),
		InvoiceNo:  newID(),
		SpCode:     "1000",
		SpMessage:  bankStatus,
		DateTime:   time.Now().Format(time.RFC3339),
	}
}
