package cart

import (
	"errors"

	"github.com/fjod/go_bookshop/internal/domain"
)

var ErrQuantityTooLow = errors.New("quantity must be at least 1")

// Repository defines the interface for cart persistence.
// Consumers define this interface, not the SQLite implementation.
type Repository interface {
	// Load returns every persisted line in insertion order plus the
	// drawer visibility flag. Called once, before the store is used.
	Load() ([]domain.CartLine, bool, error)
	SaveLine(line domain.CartLine) error
	DeleteLine(ownerID, bookID string) error
	DeleteOwner(ownerID string) error
	SaveOpen(open bool) error
}
