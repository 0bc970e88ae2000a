package cart

import (
	"sync"

	"github.com/fjod/go_bookshop/internal/domain"
)

// MemoryRepository implements Repository with in-memory storage. It
// backs ephemeral sessions and tests; nothing survives the process.
type MemoryRepository struct {
	mu    sync.Mutex
	lines []domain.CartLine
	open  bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load() ([]domain.CartLine, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartLine, len(r.lines))
	copy(out, r.lines)
	return out, r.open, nil
}

func (r *MemoryRepository) SaveLine(line domain.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.lines {
		if l.OwnerID == line.OwnerID && l.Book.ID == line.Book.ID {
			r.lines[i] = line
			return nil
		}
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *MemoryRepository) DeleteLine(ownerID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.lines {
		if l.OwnerID == ownerID && l.Book.ID == bookID {
			r.lines = append(r.lines[:i], r.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryRepository) DeleteOwner(ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.lines[:0]
	for _, l := range r.lines {
		if l.OwnerID != ownerID {
			kept = append(kept, l)
		}
	}
	r.lines = kept
	return nil
}

func (r *MemoryRepository) SaveOpen(open bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = open
	return nil
}
