package repositories

import (
	"fmt"

	"pharmapos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMWorkerRepository is a GORM implementation of WorkerRepository.
type GORMWorkerRepository struct {
	db *gorm.DB
}

// NewGORMWorkerRepository creates a new instance of GORMWorkerRepository.
func NewGORMWorkerRepository(db *gorm.DB) *GORMWorkerRepository {
	return &GORMWorkerRepository{
		db: db,
	}
}

// Create creates a new worker in the database.
func (r *GORMWorkerRepository) Create(worker *models.Worker) error {
	if worker.ID == "" {
		worker.ID = uuid.New().String()
	}
	if err := r.db.Create(worker).Error; err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

// GetByEmail retrieves a worker by their email from the database.
func (r *GORMWorkerRepository) GetByEmail(email string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.First(&worker, "email = ?", email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("worker with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get worker by email %s: %w", email, err)
	}
	return &worker, nil
}

// GetByEmployeeID retrieves a worker by their employee ID from the database.
func (r *GORMWorkerRepository) GetByEmployeeID(employeeID string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.First(&worker, "employee_id = ?", employeeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("worker with employee ID %s: %w", employeeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get worker by employee ID %s: %w", employeeID, err)
	}
	return &worker, nil
}

// GetByID retrieves a worker by their ID from the database.
func (r *GORMWorkerRepository) GetByID(id string) (*models.Worker, error) {
	var worker models.Worker
	if err := r.db.First(&worker, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("worker with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get worker by ID %s: %w", id, err)
	}
	return &worker, nil
}

// RecordSale increments the worker's sales aggregates.
func (r *GORMWorkerRepository) RecordSale(id string, amount float64) error {
	res := r.db.Model(&models.Worker{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"sales_total_bills":   gorm.Expr("sales_total_bills + 1"),
			"sales_total_revenue": gorm.Expr("sales_total_revenue + ?", amount),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record sale for worker %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("worker with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
