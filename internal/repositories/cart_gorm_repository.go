package repositories

import (
	"fmt"
	"time"

	"pharmapos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByWorker retrieves the worker's cart with all items preloaded.
func (r *GORMCartRepository) GetByWorker(workerID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").First(&cart, "worker_id = ?", workerID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("cart for worker %s: %w", workerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for worker %s: %w", workerID, err)
	}
	return &cart, nil
}

// Save upserts the cart and replaces its item set in one transaction.
// Deleting and re-inserting the items keeps removals honest without
// tracking per-item dirty state.
func (r *GORMCartRepository) Save(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	for i := range cart.Items {
		if cart.Items[i].ID == "" {
			cart.Items[i].ID = uuid.New().String()
		}
		cart.Items[i].CartID = cart.ID
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(cart).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
			return err
		}
		if len(cart.Items) > 0 {
			if err := tx.Create(&cart.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save cart %s: %w", cart.ID, err)
	}
	return nil
}

// Delete removes a cart and, via the FK constraint, its items.
func (r *GORMCartRepository) Delete(id string) error {
	res := r.db.Delete(&models.Cart{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteExpired garbage-collects carts past their expiry window.
func (r *GORMCartRepository) DeleteExpired(before time.Time) (int64, error) {
	var expired []models.Cart
	if err := r.db.Where("expires_at < ?", before).Find(&expired).Error; err != nil {
		return 0, fmt.Errorf("failed to find expired carts: %w", err)
	}
	var deleted int64
	for _, cart := range expired {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete expired cart %s: %w", cart.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
