package repositories

import (
	"fmt"

	"pharmapos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMMedicineRepository is a GORM implementation of MedicineRepository.
type GORMMedicineRepository struct {
	db *gorm.DB
}

// NewGORMMedicineRepository creates a new instance of GORMMedicineRepository.
func NewGORMMedicineRepository(db *gorm.DB) *GORMMedicineRepository {
	return &GORMMedicineRepository{
		db: db,
	}
}

// GetAll retrieves all medicines from the database.
func (r *GORMMedicineRepository) GetAll() ([]models.Medicine, error) {
	var medicines []models.Medicine
	if err := r.db.Find(&medicines).Error; err != nil {
		return nil, fmt.Errorf("failed to get all medicines: %w", err)
	}
	return medicines, nil
}

// GetByID retrieves a single medicine by its ID from the database.
func (r *GORMMedicineRepository) GetByID(id string) (*models.Medicine, error) {
	var medicine models.Medicine
	if err := r.db.First(&medicine, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get medicine by ID %s: %w", id, err)
	}
	return &medicine, nil
}

// Create creates a new medicine in the database.
func (r *GORMMedicineRepository) Create(medicine *models.Medicine) error {
	if medicine.ID == "" {
		medicine.ID = uuid.New().String()
	}
	if err := r.db.Create(medicine).Error; err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

// Update updates an existing medicine in the database.
func (r *GORMMedicineRepository) Update(medicine *models.Medicine) error {
	res := r.db.Save(medicine) // Save will update all fields, including zero values
	if res.Error != nil {
		return fmt.Errorf("failed to update medicine: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("medicine with ID %s: %w", medicine.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a medicine by its ID from the database.
func (r *GORMMedicineRepository) Delete(id string) error {
	res := r.db.Delete(&models.Medicine{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete medicine: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Search finds active medicines matching the query on name, brand or
// company, ordered by popularity.
func (r *GORMMedicineRepository) Search(query string, limit int) ([]models.Medicine, error) {
	var medicines []models.Medicine
	pattern := "%" + query + "%"
	err := r.db.
		Where("is_active = ?", true).
		Where("name LIKE ? OR brand LIKE ? OR company LIKE ?", pattern, pattern, pattern).
		Order("popularity DESC").
		Limit(limit).
		Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search medicines: %w", err)
	}
	return medicines, nil
}

// DecrementStock performs a conditional decrement guarded by the current
// stock level. The WHERE clause is the compare-and-swap: if another sale
// took the stock first, zero rows are affected and the caller must abort.
func (r *GORMMedicineRepository) DecrementStock(id string, quantity int) error {
	res := r.db.Model(&models.Medicine{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumns(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"popularity": gorm.Expr("popularity + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for medicine %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the medicine is gone or stock ran out under us.
		var count int64
		if err := r.db.Model(&models.Medicine{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to decrement stock for medicine %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("medicine %s: %w", id, ErrInsufficientStock)
	}
	return nil
}

// IncrementStock restores previously decremented stock.
func (r *GORMMedicineRepository) IncrementStock(id string, quantity int) error {
	res := r.db.Model(&models.Medicine{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for medicine %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
