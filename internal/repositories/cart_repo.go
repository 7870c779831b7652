package repositories

import (
	"time"

	"pharmapos/internal/models"
)

// CartRepository defines the interface for cart data access. Save persists
// the full cart state (items included) in one call so a failed operation
// never leaves a partially written cart behind.
type CartRepository interface {
	GetByWorker(workerID string) (*models.Cart, error)
	Save(cart *models.Cart) error
	Delete(id string) error
	// DeleteExpired removes carts whose expiry passed before the given
	// time, returning how many were collected.
	DeleteExpired(before time.Time) (int64, error)
}
