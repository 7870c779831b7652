package repositories

import (
	"fmt"
	"sync"

	"pharmapos/internal/models"

	"github.com/google/uuid"
)

// MockWorkerRepository is an in-memory implementation of WorkerRepository.
type MockWorkerRepository struct {
	workers map[string]models.Worker
	mu      sync.RWMutex
}

// NewMockWorkerRepository creates a new instance of MockWorkerRepository.
func NewMockWorkerRepository() *MockWorkerRepository {
	return &MockWorkerRepository{
		workers: make(map[string]models.Worker),
	}
}

// Create adds a new worker.
func (r *MockWorkerRepository) Create(worker *models.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if worker.ID == "" {
		worker.ID = uuid.New().String()
	}
	r.workers[worker.ID] = *worker
	return nil
}

// GetByEmail returns a worker by their email.
func (r *MockWorkerRepository) GetByEmail(email string) (*models.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, worker := range r.workers {
		if worker.Email == email {
			w := worker
			return &w, nil
		}
	}
	return nil, fmt.Errorf("worker with email %s: %w", email, ErrNotFound)
}

// GetByEmployeeID returns a worker by their employee ID.
func (r *MockWorkerRepository) GetByEmployeeID(employeeID string) (*models.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, worker := range r.workers {
		if worker.EmployeeID == employeeID {
			w := worker
			return &w, nil
		}
	}
	return nil, fmt.Errorf("worker with employee ID %s: %w", employeeID, ErrNotFound)
}

// GetByID returns a worker by their ID.
func (r *MockWorkerRepository) GetByID(id string) (*models.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	worker, ok := r.workers[id]
	if !ok {
		return nil, fmt.Errorf("worker with ID %s: %w", id, ErrNotFound)
	}
	return &worker, nil
}

// RecordSale increments the worker's sales aggregates.
func (r *MockWorkerRepository) RecordSale(id string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	worker, ok := r.workers[id]
	if !ok {
		return fmt.Errorf("worker with ID %s: %w", id, ErrNotFound)
	}
	worker.SalesStats.TotalBills++
	worker.SalesStats.TotalRevenue += amount
	r.workers[id] = worker
	return nil
}
