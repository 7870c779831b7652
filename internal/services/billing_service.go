package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
)

// BillRenderer turns a persisted bill into a printable artifact. The
// billing engine passes a fully populated, immutable bill and expects an
// opaque byte stream back.
type BillRenderer interface {
	Render(bill *models.Bill) ([]byte, error)
}

// EventPublisher broadcasts billing events to interested consumers.
type EventPublisher interface {
	PublishBillCreated(data map[string]interface{}) error
}

// BillingService converts item lists into immutable bills while
// decrementing catalog stock. Stock is taken with atomic conditional
// decrements, so two checkouts racing on the same last units cannot both
// succeed and stock never goes negative.
type BillingService struct {
	billRepo     repositories.BillRepository
	medicineRepo repositories.MedicineRepository
	workerRepo   repositories.WorkerRepository
	renderer     BillRenderer
	publisher    EventPublisher
}

// NewBillingService creates a new BillingService. publisher may be nil, in
// which case bill events are skipped.
func NewBillingService(
	billRepo repositories.BillRepository,
	medicineRepo repositories.MedicineRepository,
	workerRepo repositories.WorkerRepository,
	renderer BillRenderer,
	publisher EventPublisher,
) *BillingService {
	return &BillingService{
		billRepo:     billRepo,
		medicineRepo: medicineRepo,
		workerRepo:   workerRepo,
		renderer:     renderer,
		publisher:    publisher,
	}
}

// BillRequestItem names one medicine and quantity to bill.
type BillRequestItem struct {
	MedicineID string `json:"medicine_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=100"`
}

// BillRequest is the checkout input: an item list (usually the caller's
// cart contents) plus point-of-sale details.
type BillRequest struct {
	Items         []BillRequestItem `json:"items" validate:"required,min=1,dive"`
	Customer      models.Customer   `json:"customer"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,oneof=Cash Card UPI 'Net Banking'"`
	Discount      float64           `json:"discount" validate:"gte=0"`
	Notes         string            `json:"notes" validate:"omitempty,max=500"`
}

// BillHistory is one page of the bill listing.
type BillHistory struct {
	Bills      []models.Bill `json:"bills"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	HasMore    bool          `json:"has_more"`
}

// GenerateBill validates every requested line against the live catalog,
// freezes line-item snapshots, atomically decrements stock, persists the
// bill and returns it together with the rendered PDF artifact. A single
// invalid line aborts the whole bill before any stock is taken. The caller
// clears its cart after success; billing does not touch carts.
func (s *BillingService) GenerateBill(workerID string, req BillRequest) (*models.Bill, []byte, error) {
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: no items provided for billing", ErrValidation)
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentCash
	}
	if !models.ValidPaymentMethods[paymentMethod] {
		return nil, nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, paymentMethod)
	}
	if req.Discount < 0 {
		return nil, nil, fmt.Errorf("%w: discount cannot be negative", ErrValidation)
	}

	// Pass 1: validate every line and freeze snapshots. Nothing is
	// decremented until the whole request has passed.
	billItems := make([]models.BillItem, 0, len(req.Items))
	subtotal := 0.0
	for _, line := range req.Items {
		if line.Quantity < MinQuantity || line.Quantity > MaxQuantity {
			return nil, nil, &InvalidQuantityError{Quantity: line.Quantity}
		}
		medicine, err := s.medicineRepo.GetByID(line.MedicineID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, nil, fmt.Errorf("medicine %s: %w", line.MedicineID, ErrMedicineNotFound)
			}
			return nil, nil, fmt.Errorf("failed to load medicine %s: %w", line.MedicineID, err)
		}
		if !medicine.IsActive {
			return nil, nil, fmt.Errorf("%s: %w", medicine.Name, ErrMedicineUnavailable)
		}
		if medicine.Stock < line.Quantity {
			return nil, nil, &InsufficientStockError{
				Name:      medicine.Name,
				Requested: line.Quantity,
				Available: medicine.Stock,
			}
		}

		lineTotal := medicine.Price * float64(line.Quantity)
		subtotal += lineTotal
		billItems = append(billItems, models.BillItem{
			MedicineID: medicine.ID,
			Name:       medicine.Name,
			Brand:      medicine.Brand,
			Strength:   medicine.Strength,
			Quantity:   line.Quantity,
			UnitPrice:  medicine.Price,
			TotalPrice: lineTotal,
		})
	}

	tax := subtotal * models.TaxRate
	totalAmount := subtotal + tax - req.Discount
	if totalAmount < 0 {
		return nil, nil, fmt.Errorf("%w: discount %.2f exceeds payable amount %.2f",
			ErrValidation, req.Discount, subtotal+tax)
	}

	// Pass 2: take the stock. Each decrement is conditional; losing a race
	// on any line rolls the earlier lines back and aborts the bill.
	for i, line := range req.Items {
		if err := s.medicineRepo.DecrementStock(line.MedicineID, line.Quantity); err != nil {
			s.compensate(req.Items[:i])
			if errors.Is(err, repositories.ErrInsufficientStock) {
				available := 0
				if medicine, lookupErr := s.medicineRepo.GetByID(line.MedicineID); lookupErr == nil {
					available = medicine.Stock
				}
				return nil, nil, &InsufficientStockError{
					Name:      billItems[i].Name,
					Requested: line.Quantity,
					Available: available,
				}
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, nil, fmt.Errorf("medicine %s: %w", line.MedicineID, ErrMedicineNotFound)
			}
			return nil, nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	// Two checkouts racing on the same day count can mint the same number;
	// the unique index rejects the loser, which re-mints and retries.
	var bill *models.Bill
	for attempt := 1; ; attempt++ {
		now := time.Now()
		billNumber, err := s.nextBillNumber(now)
		if err != nil {
			s.compensate(req.Items)
			return nil, nil, err
		}

		bill = &models.Bill{
			BillNumber:    billNumber,
			WorkerID:      workerID,
			Customer:      req.Customer,
			Items:         billItems,
			Subtotal:      subtotal,
			Tax:           tax,
			Discount:      req.Discount,
			TotalAmount:   totalAmount,
			PaymentMethod: paymentMethod,
			Status:        models.BillStatusCompleted,
			Notes:         req.Notes,
			CreatedAt:     now,
		}
		err = s.billRepo.Create(bill)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrConflict) && attempt < billNumberAttempts {
			continue
		}
		s.compensate(req.Items)
		return nil, nil, fmt.Errorf("failed to persist bill: %w", err)
	}

	if err := s.workerRepo.RecordSale(workerID, totalAmount); err != nil {
		log.Printf("Warning: failed to update sales stats for worker %s: %v", workerID, err)
	}

	if s.publisher != nil {
		event := map[string]interface{}{
			"billID":     bill.ID,
			"billNumber": bill.BillNumber,
			"workerID":   bill.WorkerID,
			"total":      bill.TotalAmount,
			"itemsSold":  bill.TotalQuantity(),
		}
		if err := s.publisher.PublishBillCreated(event); err != nil {
			log.Printf("Warning: failed to publish bill created event for bill %s: %v", bill.BillNumber, err)
		}
	}

	artifact, err := s.renderer.Render(bill)
	if err != nil {
		// The bill is already persisted and stock taken; rendering can be
		// retried via the download endpoint.
		return bill, nil, fmt.Errorf("failed to render bill %s: %w", bill.BillNumber, err)
	}
	return bill, artifact, nil
}

// compensate restores stock taken by the given lines after an aborted
// checkout. Failures here are logged loudly: stock has been decremented
// with no corresponding bill and needs operator attention.
func (s *BillingService) compensate(taken []BillRequestItem) {
	for _, line := range taken {
		if err := s.medicineRepo.IncrementStock(line.MedicineID, line.Quantity); err != nil {
			log.Printf("ERROR: failed to restore %d units of medicine %s after aborted checkout: %v",
				line.Quantity, line.MedicineID, err)
		}
	}
}

// billNumberAttempts bounds the bill number retry loop in GenerateBill.
const billNumberAttempts = 3

// nextBillNumber derives the date-scoped sequential bill number, e.g.
// BILL-20260829-003.
func (s *BillingService) nextBillNumber(now time.Time) (string, error) {
	count, err := s.billRepo.CountForDay(now)
	if err != nil {
		return "", fmt.Errorf("failed to derive bill number: %w", err)
	}
	return fmt.Sprintf("BILL-%s-%03d", now.Format("20060102"), count+1), nil
}

// GetBill returns a single bill. Workers only see their own bills; owners
// see everything. Out-of-scope bills read as not found rather than
// forbidden so their existence does not leak.
func (s *BillingService) GetBill(requesterID, role, billID string) (*models.Bill, error) {
	bill, err := s.billRepo.GetByID(billID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to load bill %s: %w", billID, err)
	}
	if role != models.RoleOwner && bill.WorkerID != requesterID {
		return nil, ErrBillNotFound
	}
	return bill, nil
}

// RenderBill re-renders the PDF artifact for an existing bill.
func (s *BillingService) RenderBill(requesterID, role, billID string) (*models.Bill, []byte, error) {
	bill, err := s.GetBill(requesterID, role, billID)
	if err != nil {
		return nil, nil, err
	}
	artifact, err := s.renderer.Render(bill)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render bill %s: %w", bill.BillNumber, err)
	}
	return bill, artifact, nil
}

// ListBills returns a page of bill history. Workers are scoped to their
// own bills regardless of the filter they pass.
func (s *BillingService) ListBills(requesterID, role string, filter repositories.BillFilter) (*BillHistory, error) {
	if role != models.RoleOwner {
		filter.WorkerID = requesterID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	bills, totalCount, err := s.billRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	totalPages := int((totalCount + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &BillHistory{
		Bills:      bills,
		TotalCount: totalCount,
		Page:       filter.Page,
		TotalPages: totalPages,
		HasMore:    int64((filter.Page-1)*filter.Limit+len(bills)) < totalCount,
	}, nil
}

// UpdateBillStatus transitions a bill's status. Owner-only; bills are
// never physically deleted, cancellation and refund are status moves.
func (s *BillingService) UpdateBillStatus(role, billID, status string) (*models.Bill, error) {
	if role != models.RoleOwner {
		return nil, ErrForbidden
	}
	if !models.ValidBillStatuses[status] {
		return nil, fmt.Errorf("%w: invalid bill status %q", ErrValidation, status)
	}
	if err := s.billRepo.UpdateStatus(billID, status); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to update status for bill %s: %w", billID, err)
	}
	bill, err := s.billRepo.GetByID(billID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bill %s: %w", billID, err)
	}
	return bill, nil
}

// CancelBill is the soft delete: owners mark a bill Cancelled.
func (s *BillingService) CancelBill(role, billID string) (*models.Bill, error) {
	return s.UpdateBillStatus(role, billID, models.BillStatusCancelled)
}

// topMedicinesLimit caps the best-sellers ranking on the owner dashboard.
const topMedicinesLimit = 10

// SalesAnalytics is the owner dashboard payload: aggregate sales figures
// plus the best-selling medicines for the window.
type SalesAnalytics struct {
	Summary      repositories.SalesSummary  `json:"summary"`
	TopMedicines []repositories.TopMedicine `json:"top_medicines"`
}

// Analytics aggregates completed bills, optionally bounded to a date
// window. Owner-only; cancelled and refunded bills never count towards
// revenue.
func (s *BillingService) Analytics(role string, filter repositories.AnalyticsFilter) (*SalesAnalytics, error) {
	if role != models.RoleOwner {
		return nil, ErrForbidden
	}

	summary, err := s.billRepo.Summarize(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize sales: %w", err)
	}
	topMedicines, err := s.billRepo.TopMedicines(filter, topMedicinesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank medicines: %w", err)
	}
	return &SalesAnalytics{
		Summary:      *summary,
		TopMedicines: topMedicines,
	}, nil
}
