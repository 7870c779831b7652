package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"pharmapos/internal/models"

	"github.com/google/uuid"
)

// MockMedicineRepository is an in-memory implementation of MedicineRepository.
type MockMedicineRepository struct {
	medicines map[string]models.Medicine
	mu        sync.RWMutex
}

// NewMockMedicineRepository creates a new instance of MockMedicineRepository.
func NewMockMedicineRepository() *MockMedicineRepository {
	return &MockMedicineRepository{
		medicines: make(map[string]models.Medicine),
	}
}

// GetAll returns all medicines.
func (r *MockMedicineRepository) GetAll() ([]models.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	medicineList := make([]models.Medicine, 0, len(r.medicines))
	for _, m := range r.medicines {
		medicineList = append(medicineList, m)
	}
	return medicineList, nil
}

// GetByID returns a medicine by its ID.
func (r *MockMedicineRepository) GetByID(id string) (*models.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	medicine, ok := r.medicines[id]
	if !ok {
		return nil, fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	return &medicine, nil
}

// Create adds a new medicine.
func (r *MockMedicineRepository) Create(medicine *models.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if medicine.ID == "" {
		medicine.ID = uuid.New().String()
	}
	r.medicines[medicine.ID] = *medicine
	return nil
}

// Update modifies an existing medicine.
func (r *MockMedicineRepository) Update(medicine *models.Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.medicines[medicine.ID]
	if !ok {
		return fmt.Errorf("medicine with ID %s: %w", medicine.ID, ErrNotFound)
	}
	r.medicines[medicine.ID] = *medicine
	return nil
}

// Delete removes a medicine by its ID.
func (r *MockMedicineRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.medicines[id]
	if !ok {
		return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	delete(r.medicines, id)
	return nil
}

// Search returns active medicines matching the query on name, brand or
// company, most popular first.
func (r *MockMedicineRepository) Search(query string, limit int) ([]models.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	matches := make([]models.Medicine, 0)
	for _, m := range r.medicines {
		if !m.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Brand), q) ||
			strings.Contains(strings.ToLower(m.Company), q) {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Popularity > matches[j].Popularity
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// DecrementStock reduces stock under the write lock, so the check and the
// write are a single atomic step like the SQL conditional update.
func (r *MockMedicineRepository) DecrementStock(id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	medicine, ok := r.medicines[id]
	if !ok {
		return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	if medicine.Stock < quantity {
		return fmt.Errorf("medicine %s: %w", id, ErrInsufficientStock)
	}
	medicine.Stock -= quantity
	medicine.Popularity++
	r.medicines[id] = medicine
	return nil
}

// IncrementStock restores previously decremented stock.
func (r *MockMedicineRepository) IncrementStock(id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	medicine, ok := r.medicines[id]
	if !ok {
		return fmt.Errorf("medicine with ID %s: %w", id, ErrNotFound)
	}
	medicine.Stock += quantity
	r.medicines[id] = medicine
	return nil
}
