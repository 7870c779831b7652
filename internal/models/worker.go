package models

import "gorm.io/gorm"

// Worker roles.
const (
	RoleWorker = "worker"
	RoleOwner  = "owner"
)

// SalesStats tracks per-worker billing aggregates.
type SalesStats struct {
	TotalBills   int     `json:"total_bills" gorm:"default:0"`
	TotalRevenue float64 `json:"total_revenue" gorm:"default:0"`
}

// Worker represents a pharmacy staff member who can operate the point of
// sale. Owners additionally manage bill statuses.
type Worker struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string     `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email      string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string     `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Phone      string     `json:"phone" gorm:"type:varchar(20)" validate:"required,min=10,max=15"`
	EmployeeID string     `json:"employee_id" gorm:"uniqueIndex;type:varchar(30)" validate:"required,min=2,max=30"`
	Role       string     `json:"role" gorm:"type:varchar(10);default:worker" validate:"omitempty,oneof=worker owner"`
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	SalesStats SalesStats `json:"sales_stats" gorm:"embedded;embeddedPrefix:sales_"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
