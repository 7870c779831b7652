package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pharmapos/internal/models"

	"github.com/google/uuid"
)

// MockBillRepository is an in-memory implementation of BillRepository.
type MockBillRepository struct {
	bills map[string]models.Bill
	mu    sync.RWMutex
}

// NewMockBillRepository creates a new instance of MockBillRepository.
func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{
		bills: make(map[string]models.Bill),
	}
}

// Create adds a new bill. The bill number must be unique, matching the
// database index.
func (r *MockBillRepository) Create(bill *models.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bills {
		if existing.BillNumber == bill.BillNumber {
			return fmt.Errorf("bill number %s: %w", bill.BillNumber, ErrConflict)
		}
	}
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	for i := range bill.Items {
		if bill.Items[i].ID == "" {
			bill.Items[i].ID = uuid.New().String()
		}
		bill.Items[i].BillID = bill.ID
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	bill.UpdatedAt = time.Now()
	r.bills[bill.ID] = *bill
	return nil
}

// GetByID returns a bill by its ID.
func (r *MockBillRepository) GetByID(id string) (*models.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bill, ok := r.bills[id]
	if !ok {
		return nil, fmt.Errorf("bill with ID %s: %w", id, ErrNotFound)
	}
	return &bill, nil
}

// List returns a page of bills matching the filter, newest first.
func (r *MockBillRepository) List(filter BillFilter) ([]models.Bill, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]models.Bill, 0)
	for _, bill := range r.bills {
		if filter.WorkerID != "" && bill.WorkerID != filter.WorkerID {
			continue
		}
		if filter.Status != "" && bill.Status != filter.Status {
			continue
		}
		if filter.StartDate != nil && bill.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && bill.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matches = append(matches, bill)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	totalCount := int64(len(matches))
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(matches) {
		return []models.Bill{}, totalCount, nil
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], totalCount, nil
}

// UpdateStatus updates the status of a bill.
func (r *MockBillRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bill, ok := r.bills[id]
	if !ok {
		return fmt.Errorf("bill with ID %s: %w", id, ErrNotFound)
	}
	bill.Status = status
	bill.UpdatedAt = time.Now()
	r.bills[id] = bill
	return nil
}

// Summarize aggregates completed bills in the window.
func (r *MockBillRepository) Summarize(filter AnalyticsFilter) (*SalesSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &SalesSummary{}
	for _, bill := range r.bills {
		if !r.inWindow(bill, filter) {
			continue
		}
		summary.TotalBills++
		summary.TotalRevenue += bill.TotalAmount
		summary.TotalItemsSold += int64(bill.TotalQuantity())
	}
	if summary.TotalBills > 0 {
		summary.AverageOrderValue = summary.TotalRevenue / float64(summary.TotalBills)
	}
	return summary, nil
}

// TopMedicines ranks medicines by units sold across completed bills in the
// window.
func (r *MockBillRepository) TopMedicines(filter AnalyticsFilter, limit int) ([]TopMedicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	byMedicine := make(map[string]*TopMedicine)
	for _, bill := range r.bills {
		if !r.inWindow(bill, filter) {
			continue
		}
		for _, item := range bill.Items {
			entry, ok := byMedicine[item.MedicineID]
			if !ok {
				entry = &TopMedicine{
					MedicineID: item.MedicineID,
					Name:       item.Name,
					Brand:      item.Brand,
				}
				byMedicine[item.MedicineID] = entry
			}
			entry.TotalQuantity += int64(item.Quantity)
			entry.TotalRevenue += item.TotalPrice
		}
	}

	ranked := make([]TopMedicine, 0, len(byMedicine))
	for _, entry := range byMedicine {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].TotalQuantity > ranked[j].TotalQuantity
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (r *MockBillRepository) inWindow(bill models.Bill, filter AnalyticsFilter) bool {
	if bill.Status != models.BillStatusCompleted {
		return false
	}
	if filter.StartDate != nil && bill.CreatedAt.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && bill.CreatedAt.After(*filter.EndDate) {
		return false
	}
	return true
}

// CountForDay counts the bills created on the given calendar day.
func (r *MockBillRepository) CountForDay(day time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	for _, bill := range r.bills {
		if !bill.CreatedAt.Before(start) && bill.CreatedAt.Before(end) {
			count++
		}
	}
	return count, nil
}
