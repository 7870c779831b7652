package repositories

import (
	"pharmapos/internal/models"
)

// MedicineRepository defines the interface for catalog data access.
type MedicineRepository interface {
	GetAll() ([]models.Medicine, error)
	GetByID(id string) (*models.Medicine, error)
	Create(medicine *models.Medicine) error
	Update(medicine *models.Medicine) error
	Delete(id string) error
	Search(query string, limit int) ([]models.Medicine, error)
	// DecrementStock atomically reduces stock by quantity and bumps the
	// popularity counter, failing with ErrInsufficientStock when the
	// current stock is below quantity. Stock never goes negative.
	DecrementStock(id string, quantity int) error
	// IncrementStock restores stock, used to compensate an aborted checkout.
	IncrementStock(id string, quantity int) error
}
