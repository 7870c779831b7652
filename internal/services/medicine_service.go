package services

import (
	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
)

// MedicineService handles business logic related to the catalog.
type MedicineService struct {
	repo repositories.MedicineRepository
}

// NewMedicineService creates a new MedicineService.
func NewMedicineService(repo repositories.MedicineRepository) *MedicineService {
	return &MedicineService{
		repo: repo,
	}
}

// GetAllMedicines retrieves all medicines.
func (s *MedicineService) GetAllMedicines() ([]models.Medicine, error) {
	return s.repo.GetAll()
}

// GetMedicineByID retrieves a single medicine by its ID.
func (s *MedicineService) GetMedicineByID(id string) (*models.Medicine, error) {
	return s.repo.GetByID(id)
}

// CreateMedicine creates a new catalog entry. New medicines default to
// active so they are immediately sellable.
func (s *MedicineService) CreateMedicine(medicine *models.Medicine) error {
	medicine.IsActive = true
	return s.repo.Create(medicine)
}

// UpdateMedicine updates an existing medicine.
func (s *MedicineService) UpdateMedicine(medicine *models.Medicine) error {
	return s.repo.Update(medicine)
}

// DeleteMedicine deletes a medicine by its ID. Historical bills keep their
// frozen snapshots and are unaffected.
func (s *MedicineService) DeleteMedicine(id string) error {
	return s.repo.Delete(id)
}

// SearchMedicines finds active medicines matching the query, most popular
// first. Popularity moves only at checkout, never on search.
func (s *MedicineService) SearchMedicines(query string, limit int) ([]models.Medicine, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.repo.Search(query, limit)
}
