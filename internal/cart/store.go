package cart

import (
	"log"
	"sync"
	"time"

	"github.com/fjod/go_bookshop/internal/domain"
)

// Store holds per-owner cart state with idempotent mutation semantics.
// It is an explicit, injectable container: tests and callers create
// isolated instances, there is no package-level singleton.
//
// Mutations are total functions over the in-memory state; persistence
// failures are logged and do not surface to callers. Stock limits are
// deliberately not enforced here, checkout re-validates against live
// book data before an order is submitted.
type Store struct {
	mu    sync.RWMutex
	repo  Repository
	lines []domain.CartLine
	open  bool
	views map[string]*ownerView
}

// ownerView memoizes the derived views for one owner so that switching
// the active identity does not recompute on every read.
type ownerView struct {
	lines []domain.CartLine
	count int
	total float64
}

// NewStore rehydrates state from the repository before returning, so
// callers never observe a flash of empty-cart state after a restart.
func NewStore(repo Repository) (*Store, error) {
	lines, open, err := repo.Load()
	if err != nil {
		return nil, err
	}
	return &Store{
		repo:  repo,
		lines: lines,
		open:  open,
		views: make(map[string]*ownerView),
	}, nil
}

// Add appends a line with quantity 1, or increments the quantity when a
// line for (ownerID, book.ID) already exists. It always succeeds and
// opens the cart drawer.
func (s *Store) Add(book domain.Book, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(ownerID, book.ID); i >= 0 {
		s.lines[i].Quantity++
		s.persistLine(s.lines[i])
	} else {
		line := domain.CartLine{
			Book:     book,
			Quantity: 1,
			OwnerID:  ownerID,
			AddedAt:  time.Now(),
		}
		s.lines = append(s.lines, line)
		s.persistLine(line)
	}

	s.setOpen(true)
	delete(s.views, ownerID)
}

// Remove deletes the matching line. Removing an absent line is a no-op,
// not an error.
func (s *Store) Remove(bookID, ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ownerID, bookID)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	if err := s.repo.DeleteLine(ownerID, bookID); err != nil {
		log.Printf("cart: delete line failed: %v", err)
	}
	delete(s.views, ownerID)
}

// SetQuantity sets the line's quantity to the given value. Absent lines
// are a no-op. Quantities below 1 are rejected: a decrement that would
// reach zero must be expressed as Remove, never as SetQuantity(0).
func (s *Store) SetQuantity(bookID, ownerID string, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ownerID, bookID)
	if i < 0 {
		return nil
	}
	s.lines[i].Quantity = quantity
	s.persistLine(s.lines[i])
	delete(s.views, ownerID)
	return nil
}

// Clear removes all and only the lines belonging to ownerID. Other
// owners' lines on a shared device are untouched.
func (s *Store) Clear(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.OwnerID != ownerID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	if err := s.repo.DeleteOwner(ownerID); err != nil {
		log.Printf("cart: clear owner failed: %v", err)
	}
	delete(s.views, ownerID)
}

// Merge reassigns fromOwner's lines to toOwner, summing quantities when
// both carts hold the same book. Used on login to carry a guest cart
// into the authenticated identity.
func (s *Store) Merge(fromOwner, toOwner string) {
	if fromOwner == toOwner {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	var moved []domain.CartLine
	for _, l := range s.lines {
		if l.OwnerID == fromOwner {
			moved = append(moved, l)
		} else {
			kept = append(kept, l)
		}
	}
	s.lines = kept

	for _, l := range moved {
		if i := s.indexOf(toOwner, l.Book.ID); i >= 0 {
			s.lines[i].Quantity += l.Quantity
			s.persistLine(s.lines[i])
		} else {
			l.OwnerID = toOwner
			s.lines = append(s.lines, l)
			s.persistLine(l)
		}
	}

	if err := s.repo.DeleteOwner(fromOwner); err != nil {
		log.Printf("cart: merge cleanup failed: %v", err)
	}
	delete(s.views, fromOwner)
	delete(s.views, toOwner)
}

// Toggle flips the drawer visibility, or forces it when explicit is
// non-nil.
func (s *Store) Toggle(explicit *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if explicit != nil {
		s.setOpen(*explicit)
		return
	}
	s.setOpen(!s.open)
}

func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// Lines returns ownerID's lines in insertion order.
func (s *Store) Lines(ownerID string) []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(ownerID).lines
}

// Count is the total quantity across ownerID's lines.
func (s *Store) Count(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(ownerID).count
}

// Total is the sum of effective price times quantity over ownerID's
// lines.
func (s *Store) Total(ownerID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(ownerID).total
}

// view returns the memoized derived views for an owner, computing them
// on first access after a mutation. Caller must hold s.mu.
func (s *Store) view(ownerID string) *ownerView {
	if v, ok := s.views[ownerID]; ok {
		return v
	}

	v := &ownerView{}
	for _, l := range s.lines {
		if l.OwnerID != ownerID {
			continue
		}
		v.lines = append(v.lines, l)
		v.count += l.Quantity
		v.total += l.Subtotal()
	}
	s.views[ownerID] = v
	return v
}

func (s *Store) indexOf(ownerID, bookID string) int {
	for i, l := range s.lines {
		if l.OwnerID == ownerID && l.Book.ID == bookID {
			return i
		}
	}
	return -1
}

func (s *Store) persistLine(line domain.CartLine) {
	if err := s.repo.SaveLine(line); err != nil {
		log.Printf("cart: save line failed: %v", err)
	}
}

func (s *Store) setOpen(open bool) {
	if s.open == open {
		return
	}
	s.open = open
	if err := s.repo.SaveOpen(open); err != nil {
		log.Printf("cart: save drawer state failed: %v", err)
	}
}
