package services_test

import (
	"errors"
	"testing"

	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
	"pharmapos/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkerID = "worker-1"

func newCartFixture() (*services.CartService, *repositories.MockMedicineRepository, *repositories.MockCartRepository) {
	medicineRepo := repositories.NewMockMedicineRepository()
	cartRepo := repositories.NewMockCartRepository()
	return services.NewCartService(cartRepo, medicineRepo), medicineRepo, cartRepo
}

func seedMedicine(t *testing.T, repo *repositories.MockMedicineRepository, name string, price float64, stock int) *models.Medicine {
	t.Helper()
	medicine := &models.Medicine{
		Name:     name,
		Brand:    name + " Brand",
		Company:  "Acme Pharma",
		Strength: "500mg",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, repo.Create(medicine))
	return medicine
}

// assertTotalsConsistent checks the derived totals against a fresh scan of
// the view's items.
func assertTotalsConsistent(t *testing.T, view *services.CartView) {
	t.Helper()
	items := 0
	amount := 0.0
	for _, item := range view.Items {
		items += item.Quantity
		amount += item.PriceAtTime * float64(item.Quantity)
	}
	assert.Equal(t, items, view.TotalItems)
	assert.InDelta(t, amount, view.TotalAmount, 0.001)
}

func TestCartService_AddItem(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)

	view, err := svc.AddItem(testWorkerID, medicine.ID, 3)

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.TotalItems)
	assert.InDelta(t, 150.0, view.TotalAmount, 0.001)
	assert.Equal(t, 50.0, view.Items[0].PriceAtTime)
	assert.True(t, view.Items[0].Available)
	assert.Equal(t, 10, view.Items[0].MaxAvailable)
	assertTotalsConsistent(t, view)
}

func TestCartService_AddItem_MergesExistingLine(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)

	_, err := svc.AddItem(testWorkerID, medicine.ID, 2)
	require.NoError(t, err)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 3)

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, 5, view.TotalItems)
	assertTotalsConsistent(t, view)
}

func TestCartService_AddItem_SnapshotsPriceAtAddTime(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)

	_, err := svc.AddItem(testWorkerID, medicine.ID, 1)
	require.NoError(t, err)

	medicine.Price = 75.0
	require.NoError(t, medicineRepo.Update(medicine))

	view, err := svc.GetCart(testWorkerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 50.0, view.Items[0].PriceAtTime)
	assert.InDelta(t, 50.0, view.TotalAmount, 0.001)
}

func TestCartService_AddItem_InsufficientStockOnMerge(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 5)

	_, err := svc.AddItem(testWorkerID, medicine.ID, 5)
	require.NoError(t, err)

	_, err = svc.AddItem(testWorkerID, medicine.ID, 2)

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 7, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	// The failed add must not have touched the cart.
	view, err := svc.GetCart(testWorkerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assertTotalsConsistent(t, view)
}

func TestCartService_AddItem_RejectsInvalidQuantity(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 500)

	for _, quantity := range []int{0, -1, 101} {
		_, err := svc.AddItem(testWorkerID, medicine.ID, quantity)
		var quantityErr *services.InvalidQuantityError
		assert.ErrorAs(t, err, &quantityErr, "quantity %d", quantity)
	}

	// Merging past the cap is rejected too.
	_, err := svc.AddItem(testWorkerID, medicine.ID, 60)
	require.NoError(t, err)
	_, err = svc.AddItem(testWorkerID, medicine.ID, 60)
	var quantityErr *services.InvalidQuantityError
	assert.ErrorAs(t, err, &quantityErr)
}

func TestCartService_AddItem_UnknownMedicine(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.AddItem(testWorkerID, "missing", 1)

	assert.ErrorIs(t, err, services.ErrMedicineNotFound)
}

func TestCartService_AddItem_InactiveMedicine(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	medicine.IsActive = false
	require.NoError(t, medicineRepo.Update(medicine))

	_, err := svc.AddItem(testWorkerID, medicine.ID, 1)

	assert.ErrorIs(t, err, services.ErrMedicineUnavailable)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 3)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = svc.UpdateQuantity(testWorkerID, itemID, 7)

	require.NoError(t, err)
	assert.Equal(t, 7, view.Items[0].Quantity)
	assert.Equal(t, 7, view.TotalItems)
	assert.InDelta(t, 350.0, view.TotalAmount, 0.001)
	assertTotalsConsistent(t, view)
}

func TestCartService_UpdateQuantity_RejectsZero(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 3)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	_, err = svc.UpdateQuantity(testWorkerID, itemID, 0)

	var quantityErr *services.InvalidQuantityError
	require.ErrorAs(t, err, &quantityErr)

	// Zero is a rejection, not a removal.
	view, err = svc.GetCart(testWorkerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
}

func TestCartService_UpdateQuantity_UnknownItem(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	_, err := svc.AddItem(testWorkerID, medicine.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(testWorkerID, "missing", 2)

	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestCartService_RemoveItem(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	first := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	second := seedMedicine(t, medicineRepo, "Ibuprofen", 80.0, 10)
	view, err := svc.AddItem(testWorkerID, first.ID, 2)
	require.NoError(t, err)
	itemID := view.Items[0].ID
	_, err = svc.AddItem(testWorkerID, second.ID, 1)
	require.NoError(t, err)

	view, err = svc.RemoveItem(testWorkerID, itemID)

	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, second.ID, view.Items[0].MedicineID)
	assertTotalsConsistent(t, view)

	_, err = svc.RemoveItem(testWorkerID, itemID)
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestCartService_SaveForLaterAndMoveToCart(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 4)
	require.NoError(t, err)
	itemID := view.Items[0].ID

	view, err = svc.SaveForLater(testWorkerID, itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	require.Len(t, view.SavedItems, 1)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, 0.0, view.TotalAmount)

	// Saved items are invisible to the active-item operations.
	_, err = svc.UpdateQuantity(testWorkerID, itemID, 2)
	assert.ErrorIs(t, err, services.ErrItemNotFound)
	_, err = svc.SaveForLater(testWorkerID, itemID)
	assert.ErrorIs(t, err, services.ErrItemNotFound)

	// The price changed while the item was parked; moving back adopts it.
	medicine.Price = 60.0
	require.NoError(t, medicineRepo.Update(medicine))

	view, err = svc.MoveToCart(testWorkerID, itemID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Empty(t, view.SavedItems)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, 60.0, view.Items[0].PriceAtTime)
	assertTotalsConsistent(t, view)
}

func TestCartService_MoveToCart_InsufficientStock(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 4)
	require.NoError(t, err)
	itemID := view.Items[0].ID
	_, err = svc.SaveForLater(testWorkerID, itemID)
	require.NoError(t, err)

	medicine.Stock = 2
	require.NoError(t, medicineRepo.Update(medicine))

	_, err = svc.MoveToCart(testWorkerID, itemID)

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	// The item stays parked.
	view, err = svc.GetCart(testWorkerID)
	require.NoError(t, err)
	assert.Len(t, view.SavedItems, 1)
}

func TestCartService_ClearCart(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 2)
	require.NoError(t, err)
	_, err = svc.SaveForLater(testWorkerID, view.Items[0].ID)
	require.NoError(t, err)

	view, err = svc.ClearCart(testWorkerID)

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.SavedItems)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, 0.0, view.TotalAmount)
}

func TestCartService_ClearCart_NoCart(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.ClearCart(testWorkerID)

	assert.ErrorIs(t, err, services.ErrCartNotFound)
}

func TestCartService_GetCart_EmptyForNewWorker(t *testing.T) {
	svc, _, _ := newCartFixture()

	view, err := svc.GetCart(testWorkerID)

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
}

func TestCartService_GetCart_HidesOutOfStockItems(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	_, err := svc.AddItem(testWorkerID, medicine.ID, 3)
	require.NoError(t, err)

	medicine.Stock = 0
	require.NoError(t, medicineRepo.Update(medicine))

	view, err := svc.GetCart(testWorkerID)

	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.Equal(t, 0.0, view.TotalAmount)
}

func TestCartService_SyncCart_RemovesUnavailableItems(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	gone := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	kept := seedMedicine(t, medicineRepo, "Ibuprofen", 80.0, 10)
	_, err := svc.AddItem(testWorkerID, gone.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(testWorkerID, kept.ID, 2)
	require.NoError(t, err)

	gone.Stock = 0
	require.NoError(t, medicineRepo.Update(gone))

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.True(t, result.HasChanges)
	require.Len(t, result.Changes, 1)
	assert.Contains(t, result.Changes[0], "Paracetamol")
	assert.Contains(t, result.Changes[0], "no longer available")
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, kept.ID, result.Cart.Items[0].MedicineID)
	assertTotalsConsistent(t, result.Cart)

	// A second sync finds nothing left to fix.
	result, err = svc.SyncCart(testWorkerID)
	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Empty(t, result.Changes)
}

func TestCartService_SyncCart_ClampsQuantityToStock(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	_, err := svc.AddItem(testWorkerID, medicine.ID, 8)
	require.NoError(t, err)

	medicine.Stock = 3
	require.NoError(t, medicineRepo.Update(medicine))

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.True(t, result.HasChanges)
	require.Len(t, result.Changes, 1)
	assert.Contains(t, result.Changes[0], "quantity reduced from 8 to 3")
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 3, result.Cart.Items[0].Quantity)
	assertTotalsConsistent(t, result.Cart)
}

func TestCartService_SyncCart_UpdatesStalePrice(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	_, err := svc.AddItem(testWorkerID, medicine.ID, 2)
	require.NoError(t, err)

	medicine.Price = 55.0
	require.NoError(t, medicineRepo.Update(medicine))

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.True(t, result.HasChanges)
	require.Len(t, result.Changes, 1)
	assert.Contains(t, result.Changes[0], "price updated from 50.00 to 55.00")
	assert.Equal(t, 55.0, result.Cart.Items[0].PriceAtTime)
	assert.InDelta(t, 110.0, result.Cart.TotalAmount, 0.001)
}

func TestCartService_SyncCart_AppliesAllCorrectionsInOnePass(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	_, err := svc.AddItem(testWorkerID, medicine.ID, 8)
	require.NoError(t, err)

	// Stock shrinks and the price drifts before the next sync.
	medicine.Stock = 3
	medicine.Price = 55.0
	require.NoError(t, medicineRepo.Update(medicine))

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.True(t, result.HasChanges)
	require.Len(t, result.Changes, 2)
	assert.Contains(t, result.Changes[0], "quantity reduced from 8 to 3")
	assert.Contains(t, result.Changes[1], "price updated from 50.00 to 55.00")
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 3, result.Cart.Items[0].Quantity)
	assert.Equal(t, 55.0, result.Cart.Items[0].PriceAtTime)
	assertTotalsConsistent(t, result.Cart)

	// A second sync finds nothing left to fix.
	result, err = svc.SyncCart(testWorkerID)
	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Empty(t, result.Changes)
}

func TestCartService_SyncCart_LeavesSavedItemsAlone(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 4)
	require.NoError(t, err)
	_, err = svc.SaveForLater(testWorkerID, view.Items[0].ID)
	require.NoError(t, err)

	medicine.Stock = 0
	require.NoError(t, medicineRepo.Update(medicine))

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Len(t, result.Cart.SavedItems, 1)
}

func TestCartService_SyncCart_NoCart(t *testing.T) {
	svc, _, _ := newCartFixture()

	result, err := svc.SyncCart(testWorkerID)

	require.NoError(t, err)
	assert.False(t, result.HasChanges)
	assert.Empty(t, result.Cart.Items)
}

func TestCartService_Summary(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	available := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	depleted := seedMedicine(t, medicineRepo, "Ibuprofen", 80.0, 10)
	_, err := svc.AddItem(testWorkerID, available.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(testWorkerID, depleted.ID, 5)
	require.NoError(t, err)

	depleted.Stock = 1
	require.NoError(t, medicineRepo.Update(depleted))

	summary, err := svc.Summary(testWorkerID)

	require.NoError(t, err)
	assert.Equal(t, 7, summary.TotalItems)
	assert.Equal(t, 2, summary.UniqueItems)
	assert.Equal(t, 1, summary.AvailableItems)
	assert.Equal(t, 1, summary.UnavailableItems)
	assert.False(t, summary.IsEmpty)
}

func TestCartService_Summary_NoCart(t *testing.T) {
	svc, _, _ := newCartFixture()

	summary, err := svc.Summary(testWorkerID)

	require.NoError(t, err)
	assert.True(t, summary.IsEmpty)
	assert.Equal(t, 0, summary.TotalItems)
}

func TestCartService_CartsAreIsolatedPerWorker(t *testing.T) {
	svc, medicineRepo, _ := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)

	_, err := svc.AddItem("worker-1", medicine.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem("worker-2", medicine.ID, 5)
	require.NoError(t, err)

	first, err := svc.GetCart("worker-1")
	require.NoError(t, err)
	second, err := svc.GetCart("worker-2")
	require.NoError(t, err)

	assert.Equal(t, 2, first.TotalItems)
	assert.Equal(t, 5, second.TotalItems)
}

func TestCartService_FailedSaveDoesNotCorruptState(t *testing.T) {
	// A repository miss surfaces as ErrCartNotFound, not a panic or a
	// silent empty success.
	svc, medicineRepo, cartRepo := newCartFixture()
	medicine := seedMedicine(t, medicineRepo, "Paracetamol", 50.0, 10)
	view, err := svc.AddItem(testWorkerID, medicine.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cartRepo.Delete(view.ID))

	_, err = svc.UpdateQuantity(testWorkerID, view.Items[0].ID, 3)
	assert.True(t, errors.Is(err, services.ErrCartNotFound))
}
