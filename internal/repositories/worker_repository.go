package repositories

import "pharmapos/internal/models"

// WorkerRepository defines the interface for worker data access.
type WorkerRepository interface {
	Create(worker *models.Worker) error
	GetByEmail(email string) (*models.Worker, error)
	GetByEmployeeID(employeeID string) (*models.Worker, error)
	GetByID(id string) (*models.Worker, error)
	// RecordSale bumps the worker's bill count and revenue aggregate after
	// a successful checkout.
	RecordSale(id string, amount float64) error
}
