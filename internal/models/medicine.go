package models

import "gorm.io/gorm"

// Medicine represents a sellable catalog entry.
type Medicine struct {
	ID            string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string  `json:"name" gorm:"index;type:varchar(100)" validate:"required,min=2,max=100"`
	Brand         string  `json:"brand" gorm:"index;type:varchar(100)" validate:"required,min=2,max=100"`
	Company       string  `json:"company" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Strength      string  `json:"strength" gorm:"type:varchar(50)" validate:"required,max=50"`
	Category      string  `json:"category" gorm:"index;type:varchar(100)" validate:"required,max=100"`
	Description   string  `json:"description" validate:"omitempty,max=500"`
	DosageForm    string  `json:"dosage_form" gorm:"type:varchar(20);default:Tablet" validate:"omitempty,oneof=Tablet Capsule Syrup Injection Cream Drops Other"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	Stock         int     `json:"stock" validate:"gte=0"`
	MinStockLevel int     `json:"min_stock_level" gorm:"default:10" validate:"gte=0"`
	Popularity    int     `json:"popularity" gorm:"index;default:0"`
	IsActive      bool    `json:"is_active" gorm:"index;default:true"`
	gorm.Model            // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// StockStatus reports a coarse inventory label for dashboards.
func (m *Medicine) StockStatus() string {
	switch {
	case m.Stock == 0:
		return "Out of Stock"
	case m.Stock <= m.MinStockLevel:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// DisplayName is the label printed on bills and search results.
func (m *Medicine) DisplayName() string {
	return m.Name + " " + m.Strength + " - " + m.Brand
}
