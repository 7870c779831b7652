package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pharmapos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBillRepository is a GORM implementation of BillRepository.
type GORMBillRepository struct {
	db *gorm.DB
}

// NewGORMBillRepository creates a new instance of GORMBillRepository.
func NewGORMBillRepository(db *gorm.DB) *GORMBillRepository {
	return &GORMBillRepository{
		db: db,
	}
}

// Create persists a new bill with its frozen line items.
func (r *GORMBillRepository) Create(bill *models.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	for i := range bill.Items {
		if bill.Items[i].ID == "" {
			bill.Items[i].ID = uuid.New().String()
		}
		bill.Items[i].BillID = bill.ID
	}
	if err := r.db.Create(bill).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("bill number %s: %w", bill.BillNumber, ErrConflict)
		}
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// isUniqueViolation recognizes unique-constraint failures across the
// supported drivers. Postgres reports "duplicate key", SQLite "UNIQUE
// constraint failed".
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}

// GetByID retrieves a bill with its line items.
func (r *GORMBillRepository) GetByID(id string) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.Preload("Items").First(&bill, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("bill with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bill by ID %s: %w", id, err)
	}
	return &bill, nil
}

// List returns a page of bills matching the filter, newest first, plus the
// total match count for pagination.
func (r *GORMBillRepository) List(filter BillFilter) ([]models.Bill, int64, error) {
	query := r.db.Model(&models.Bill{})
	if filter.WorkerID != "" {
		query = query.Where("worker_id = ?", filter.WorkerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bills: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	var bills []models.Bill
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&bills).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, totalCount, nil
}

// UpdateStatus transitions a bill's status. The remaining bill fields stay
// untouched.
func (r *GORMBillRepository) UpdateStatus(id string, status string) error {
	res := r.db.Model(&models.Bill{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for bill %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bill with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Summarize aggregates completed bills in the window.
func (r *GORMBillRepository) Summarize(filter AnalyticsFilter) (*SalesSummary, error) {
	billQuery := r.db.Model(&models.Bill{}).Where("status = ?", models.BillStatusCompleted)
	if filter.StartDate != nil {
		billQuery = billQuery.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		billQuery = billQuery.Where("created_at <= ?", *filter.EndDate)
	}

	var summary SalesSummary
	err := billQuery.
		Select("COUNT(*) AS total_bills, " +
			"COALESCE(SUM(total_amount), 0) AS total_revenue, " +
			"COALESCE(AVG(total_amount), 0) AS average_order_value").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize bills: %w", err)
	}

	err = r.completedItemsQuery(filter).
		Select("COALESCE(SUM(bill_items.quantity), 0)").
		Scan(&summary.TotalItemsSold).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum items sold: %w", err)
	}
	return &summary, nil
}

// TopMedicines ranks medicines by units sold across completed bills in the
// window. Frozen snapshots carry the name and brand, so the ranking
// survives catalog edits and deletions.
func (r *GORMBillRepository) TopMedicines(filter AnalyticsFilter, limit int) ([]TopMedicine, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []TopMedicine
	err := r.completedItemsQuery(filter).
		Select("bill_items.medicine_id, bill_items.name, bill_items.brand, " +
			"SUM(bill_items.quantity) AS total_quantity, " +
			"SUM(bill_items.total_price) AS total_revenue").
		Group("bill_items.medicine_id, bill_items.name, bill_items.brand").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank medicines: %w", err)
	}
	return rows, nil
}

// completedItemsQuery joins line items to their completed parent bills
// within the analytics window.
func (r *GORMBillRepository) completedItemsQuery(filter AnalyticsFilter) *gorm.DB {
	query := r.db.Model(&models.BillItem{}).
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.status = ?", models.BillStatusCompleted)
	if filter.StartDate != nil {
		query = query.Where("bills.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("bills.created_at <= ?", *filter.EndDate)
	}
	return query
}

// CountForDay counts the bills created on the given calendar day.
func (r *GORMBillRepository) CountForDay(day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := r.db.Model(&models.Bill{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count bills for day: %w", err)
	}
	return count, nil
}
