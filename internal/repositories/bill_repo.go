package repositories

import (
	"time"

	"pharmapos/internal/models"
)

// BillFilter narrows bill history queries. A zero WorkerID means no worker
// scoping (owner view). Page is 1-based.
type BillFilter struct {
	WorkerID  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// AnalyticsFilter narrows sales aggregates to a date window. Nil bounds
// mean unbounded.
type AnalyticsFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// SalesSummary aggregates completed bills for the owner dashboard.
type SalesSummary struct {
	TotalBills        int64   `json:"total_bills"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	TotalItemsSold    int64   `json:"total_items_sold"`
}

// TopMedicine is one row of the best-sellers ranking, aggregated from the
// frozen line-item snapshots of completed bills.
type TopMedicine struct {
	MedicineID    string  `json:"medicine_id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	TotalQuantity int64   `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// BillRepository defines the interface for bill data access. Bills are
// append-only: nothing mutates a persisted bill except its status. Create
// returns ErrConflict when the bill number is already taken.
type BillRepository interface {
	Create(bill *models.Bill) error
	GetByID(id string) (*models.Bill, error)
	List(filter BillFilter) ([]models.Bill, int64, error)
	UpdateStatus(id string, status string) error
	// CountForDay counts bills created on the given calendar day, used to
	// derive the next date-scoped bill number.
	CountForDay(day time.Time) (int64, error)
	// Summarize aggregates completed bills in the window.
	Summarize(filter AnalyticsFilter) (*SalesSummary, error)
	// TopMedicines ranks medicines by units sold across completed bills
	// in the window.
	TopMedicines(filter AnalyticsFilter, limit int) ([]TopMedicine, error)
}
