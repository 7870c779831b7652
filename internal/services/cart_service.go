package services

import (
	"errors"
	"fmt"
	"time"

	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
)

// CartService maintains one consistent, stock-aware cart per worker.
// Every mutation re-reads live medicine state, applies the change to an
// in-memory cart, recomputes the derived totals and persists the whole
// cart only on success; a failed operation never writes.
type CartService struct {
	cartRepo     repositories.CartRepository
	medicineRepo repositories.MedicineRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, medicineRepo repositories.MedicineRepository) *CartService {
	return &CartService{
		cartRepo:     cartRepo,
		medicineRepo: medicineRepo,
	}
}

// CartItemView is an active cart item annotated against current catalog
// state for presentation.
type CartItemView struct {
	models.CartItem
	Medicine     *models.Medicine `json:"medicine,omitempty"`
	Available    bool             `json:"available"`
	MaxAvailable int              `json:"max_available"`
	StockStatus  string           `json:"stock_status"`
}

// CartView is the cart state returned by every cart operation.
type CartView struct {
	ID          string            `json:"id,omitempty"`
	WorkerID    string            `json:"worker_id"`
	Items       []CartItemView    `json:"items"`
	SavedItems  []models.CartItem `json:"saved_items"`
	TotalItems  int               `json:"total_items"`
	TotalAmount float64           `json:"total_amount"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CartSummary is the lightweight cart overview for badges and header bars.
type CartSummary struct {
	TotalItems       int       `json:"total_items"`
	TotalAmount      float64   `json:"total_amount"`
	UniqueItems      int       `json:"unique_items"`
	AvailableItems   int       `json:"available_items"`
	UnavailableItems int       `json:"unavailable_items"`
	IsEmpty          bool      `json:"is_empty"`
	LastUpdated      time.Time `json:"last_updated"`
}

// SyncResult reports what a reconciliation pass changed.
type SyncResult struct {
	Cart       *CartView `json:"cart"`
	HasChanges bool      `json:"has_changes"`
	Changes    []string  `json:"changes"`
}

// getOrCreate loads the worker's cart, lazily creating an empty one on the
// first operation.
func (s *CartService) getOrCreate(workerID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.Cart{WorkerID: workerID}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

// buildView annotates the cart's active items against current catalog
// state. Items whose medicine is gone, inactive or fully out of stock are
// excluded from the view but not deleted; sync is what actually removes
// them. View totals are recomputed over the included items only.
func (s *CartService) buildView(cart *models.Cart) (*CartView, error) {
	view := &CartView{
		ID:         cart.ID,
		WorkerID:   cart.WorkerID,
		Items:      make([]CartItemView, 0, len(cart.Items)),
		SavedItems: cart.SavedItems(),
		UpdatedAt:  cart.UpdatedAt,
	}

	for _, item := range cart.ActiveItems() {
		medicine, err := s.medicineRepo.GetByID(item.MedicineID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineID, err)
		}
		if !medicine.IsActive || medicine.Stock == 0 {
			continue
		}
		view.Items = append(view.Items, CartItemView{
			CartItem:     item,
			Medicine:     medicine,
			Available:    medicine.Stock >= item.Quantity,
			MaxAvailable: medicine.Stock,
			StockStatus:  medicine.StockStatus(),
		})
		view.TotalItems += item.Quantity
		view.TotalAmount += item.PriceAtTime * float64(item.Quantity)
	}
	return view, nil
}

// GetCart returns the worker's cart annotated against current catalog
// state. A worker without a cart gets an empty view, not an error.
func (s *CartService) GetCart(workerID string) (*CartView, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &CartView{
				WorkerID:   workerID,
				Items:      []CartItemView{},
				SavedItems: []models.CartItem{},
				UpdatedAt:  time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.buildView(cart)
}

// AddItem puts quantity units of a medicine into the cart, merging with an
// existing line for the same medicine. The unit price is snapshotted at
// call time. Stock shortfalls reject the call outright; clamping is
// reserved for SyncCart.
func (s *CartService) AddItem(workerID, medicineID string, quantity int) (*CartView, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	medicine, err := s.medicineRepo.GetByID(medicineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMedicineNotFound
		}
		return nil, fmt.Errorf("failed to load medicine %s: %w", medicineID, err)
	}
	if !medicine.IsActive {
		return nil, ErrMedicineUnavailable
	}

	cart, err := s.getOrCreate(workerID)
	if err != nil {
		return nil, err
	}

	if existing := cart.FindByMedicine(medicineID); existing != nil {
		// Accumulate onto the existing line, never replace.
		newQuantity := existing.Quantity + quantity
		if newQuantity > MaxQuantity {
			return nil, &InvalidQuantityError{Quantity: newQuantity}
		}
		if medicine.Stock < newQuantity {
			return nil, &InsufficientStockError{
				Name:      medicine.Name,
				Requested: newQuantity,
				Available: medicine.Stock,
			}
		}
		existing.Quantity = newQuantity
		existing.UpdatedAt = time.Now()
	} else {
		if medicine.Stock < quantity {
			return nil, &InsufficientStockError{
				Name:      medicine.Name,
				Requested: quantity,
				Available: medicine.Stock,
			}
		}
		now := time.Now()
		cart.Items = append(cart.Items, models.CartItem{
			MedicineID:  medicineID,
			Quantity:    quantity,
			PriceAtTime: medicine.Price,
			AddedAt:     now,
			UpdatedAt:   now,
		})
	}

	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// UpdateQuantity sets a new quantity for an active cart item. Zero and
// negative quantities are rejected, not treated as removal.
func (s *CartService) UpdateQuantity(workerID, itemID string, quantity int) (*CartView, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item := cart.FindItem(itemID)
	if item == nil || item.SavedForLater {
		return nil, ErrItemNotFound
	}

	medicine, err := s.medicineRepo.GetByID(item.MedicineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMedicineUnavailable
		}
		return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineID, err)
	}
	if !medicine.IsActive {
		return nil, ErrMedicineUnavailable
	}
	if medicine.Stock < quantity {
		return nil, &InsufficientStockError{
			Name:      medicine.Name,
			Requested: quantity,
			Available: medicine.Stock,
		}
	}

	item.Quantity = quantity
	item.UpdatedAt = time.Now()

	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// RemoveItem unconditionally removes an active item from the cart.
// Removing an item that is not there is reported as not-found, never
// silently ignored.
func (s *CartService) RemoveItem(workerID, itemID string) (*CartView, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item := cart.FindItem(itemID)
	if item == nil || item.SavedForLater {
		return nil, ErrItemNotFound
	}
	cart.RemoveItem(itemID)

	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// SaveForLater parks an active item. Saved items stop counting toward the
// cart totals.
func (s *CartService) SaveForLater(workerID, itemID string) (*CartView, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item := cart.FindItem(itemID)
	if item == nil || item.SavedForLater {
		return nil, ErrItemNotFound
	}

	now := time.Now()
	item.SavedForLater = true
	item.SavedAt = &now

	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// MoveToCart returns a saved item to the active list. Stock and
// availability are re-validated first: a saved item may have gone out of
// stock in the interim. The price snapshot silently adopts the current
// catalog price, the same correction sync applies.
func (s *CartService) MoveToCart(workerID, savedItemID string) (*CartView, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	item := cart.FindItem(savedItemID)
	if item == nil || !item.SavedForLater {
		return nil, ErrItemNotFound
	}

	medicine, err := s.medicineRepo.GetByID(item.MedicineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMedicineUnavailable
		}
		return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineID, err)
	}
	if !medicine.IsActive {
		return nil, ErrMedicineUnavailable
	}
	if medicine.Stock < item.Quantity {
		return nil, &InsufficientStockError{
			Name:      medicine.Name,
			Requested: item.Quantity,
			Available: medicine.Stock,
		}
	}

	item.SavedForLater = false
	item.SavedAt = nil
	item.PriceAtTime = medicine.Price
	item.UpdatedAt = time.Now()

	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// ClearCart empties both the active and saved lists. The cart record
// itself persists.
func (s *CartService) ClearCart(workerID string) (*CartView, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart.Items = nil
	cart.RecalculateTotals()
	cart.Touch()
	if err := s.cartRepo.Save(cart); err != nil {
		return nil, err
	}
	return s.buildView(cart)
}

// SyncCart reconciles the cart against current catalog truth. It is
// conservative: it only removes, shrinks or corrects. It never increases
// a quantity or re-adds a removed item. Sync always succeeds and reports
// what it changed instead of erroring.
func (s *CartService) SyncCart(workerID string) (*SyncResult, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			view, viewErr := s.GetCart(workerID)
			if viewErr != nil {
				return nil, viewErr
			}
			return &SyncResult{Cart: view, HasChanges: false, Changes: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	hasChanges := false
	changes := []string{}

	// Walk backwards so removals don't skip the following item.
	for i := len(cart.Items) - 1; i >= 0; i-- {
		item := &cart.Items[i]
		if item.SavedForLater {
			continue
		}

		medicine, err := s.medicineRepo.GetByID(item.MedicineID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineID, err)
		}

		if medicine == nil || !medicine.IsActive || medicine.Stock == 0 {
			name := "Unknown medicine"
			if medicine != nil {
				name = medicine.DisplayName()
			}
			changes = append(changes, fmt.Sprintf("%s: no longer available, removed from cart", name))
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			hasChanges = true
			continue
		}

		// Clamp and price refresh both apply in the same pass, so a second
		// sync against an unchanged catalog reports nothing.
		if medicine.Stock < item.Quantity {
			changes = append(changes, fmt.Sprintf("%s: quantity reduced from %d to %d (insufficient stock)",
				medicine.DisplayName(), item.Quantity, medicine.Stock))
			item.Quantity = medicine.Stock
			item.UpdatedAt = time.Now()
			hasChanges = true
		}
		if medicine.Price != item.PriceAtTime {
			changes = append(changes, fmt.Sprintf("%s: price updated from %.2f to %.2f",
				medicine.DisplayName(), item.PriceAtTime, medicine.Price))
			item.PriceAtTime = medicine.Price
			item.UpdatedAt = time.Now()
			hasChanges = true
		}
	}

	if hasChanges {
		cart.RecalculateTotals()
		cart.Touch()
		if err := s.cartRepo.Save(cart); err != nil {
			return nil, err
		}
	}

	view, err := s.buildView(cart)
	if err != nil {
		return nil, err
	}
	return &SyncResult{Cart: view, HasChanges: hasChanges, Changes: changes}, nil
}

// Summary returns the lightweight cart overview.
func (s *CartService) Summary(workerID string) (*CartSummary, error) {
	cart, err := s.cartRepo.GetByWorker(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &CartSummary{IsEmpty: true}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	active := cart.ActiveItems()
	summary := &CartSummary{
		TotalItems:  cart.TotalItems,
		TotalAmount: cart.TotalAmount,
		UniqueItems: len(active),
		IsEmpty:     len(active) == 0,
		LastUpdated: cart.UpdatedAt,
	}

	for _, item := range active {
		medicine, err := s.medicineRepo.GetByID(item.MedicineID)
		if err == nil && medicine.IsActive && medicine.Stock >= item.Quantity {
			summary.AvailableItems++
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to load medicine %s: %w", item.MedicineID, err)
		}
	}
	summary.UnavailableItems = summary.UniqueItems - summary.AvailableItems
	return summary, nil
}
