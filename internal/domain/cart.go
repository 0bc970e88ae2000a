package domain

import "time"

// CartLine is one (owner, book) row in the cart. Book is a snapshot
// captured at add time, not a live reference; checkout re-validates
// against live book data before any money moves.
type CartLine struct {
	Book     Book      `json:"book"`
	Quantity int       `json:"quantity"`
	OwnerID  string    `json:"owner_id"` // "" for an anonymous/guest session
	AddedAt  time.Time `json:"added_at"`
}

func (l CartLine) Subtotal() float64 {
	return l.Book.EffectivePrice() * float64(l.Quantity)
}
