package services_test

import (
	"testing"

	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
	"pharmapos/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedicineService_CreateMedicine_DefaultsToActive(t *testing.T) {
	repo := repositories.NewMockMedicineRepository()
	svc := services.NewMedicineService(repo)

	medicine := &models.Medicine{Name: "Paracetamol", Price: 50.0, Stock: 10}
	require.NoError(t, svc.CreateMedicine(medicine))

	stored, err := svc.GetMedicineByID(medicine.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestMedicineService_SearchMedicines(t *testing.T) {
	repo := repositories.NewMockMedicineRepository()
	svc := services.NewMedicineService(repo)

	popular := &models.Medicine{Name: "Paracetamol 500", Brand: "Calpol", Popularity: 10, IsActive: true}
	niche := &models.Medicine{Name: "Paracetamol 650", Brand: "Dolo", Popularity: 3, IsActive: true}
	inactive := &models.Medicine{Name: "Paracetamol 1000", Brand: "Old", Popularity: 99, IsActive: false}
	for _, m := range []*models.Medicine{popular, niche, inactive} {
		require.NoError(t, repo.Create(m))
	}

	results, err := svc.SearchMedicines("paracetamol", 0)

	require.NoError(t, err)
	// Inactive entries never match; most popular first.
	require.Len(t, results, 2)
	assert.Equal(t, "Paracetamol 500", results[0].Name)
	assert.Equal(t, "Paracetamol 650", results[1].Name)

	// Brand matching works too.
	results, err = svc.SearchMedicines("dolo", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Paracetamol 650", results[0].Name)
}

func TestMedicineService_SearchMedicines_LimitsResults(t *testing.T) {
	repo := repositories.NewMockMedicineRepository()
	svc := services.NewMedicineService(repo)

	for i := 0; i < 30; i++ {
		require.NoError(t, repo.Create(&models.Medicine{Name: "Aspirin", IsActive: true}))
	}

	// Out-of-range limits fall back to the default page size.
	results, err := svc.SearchMedicines("aspirin", 500)
	require.NoError(t, err)
	assert.Len(t, results, 20)

	results, err = svc.SearchMedicines("aspirin", 5)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}
