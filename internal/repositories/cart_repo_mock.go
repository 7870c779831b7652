package repositories

import (
	"fmt"
	"sync"
	"time"

	"pharmapos/internal/models"

	"github.com/google/uuid"
)

// MockCartRepository is an in-memory implementation of CartRepository.
// Carts are stored by value (items deep-copied) so callers mutating a cart
// in memory do not change the persisted state until Save.
type MockCartRepository struct {
	carts map[string]models.Cart // keyed by worker ID
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]models.Cart),
	}
}

func copyCart(cart models.Cart) models.Cart {
	items := make([]models.CartItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return cart
}

// GetByWorker returns the worker's cart.
func (r *MockCartRepository) GetByWorker(workerID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[workerID]
	if !ok {
		return nil, fmt.Errorf("cart for worker %s: %w", workerID, ErrNotFound)
	}
	out := copyCart(cart)
	return &out, nil
}

// Save upserts the cart, replacing the stored item set.
func (r *MockCartRepository) Save(cart *models.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == "" {
			cart.Items[i].ID = uuid.New().String()
		}
		cart.Items[i].CartID = cart.ID
	}
	cart.UpdatedAt = time.Now()
	r.carts[cart.WorkerID] = copyCart(*cart)
	return nil
}

// Delete removes a cart by its ID.
func (r *MockCartRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for workerID, cart := range r.carts {
		if cart.ID == id {
			delete(r.carts, workerID)
			return nil
		}
	}
	return fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
}

// DeleteExpired removes carts whose expiry passed before the given time.
func (r *MockCartRepository) DeleteExpired(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for workerID, cart := range r.carts {
		if cart.ExpiresAt.Before(before) {
			delete(r.carts, workerID)
			deleted++
		}
	}
	return deleted, nil
}
