package models

import "time"

// Bill status values. Bills are created directly as Completed; Draft is a
// legal value but nothing in the billing flow issues it.
const (
	BillStatusDraft     = "Draft"
	BillStatusCompleted = "Completed"
	BillStatusCancelled = "Cancelled"
	BillStatusRefunded  = "Refunded"
)

// Accepted payment methods.
const (
	PaymentCash       = "Cash"
	PaymentCard       = "Card"
	PaymentUPI        = "UPI"
	PaymentNetBanking = "Net Banking"
)

// TaxRate is the flat tax applied to every bill's subtotal.
const TaxRate = 0.05

// ValidBillStatuses is the set of legal values for Bill.Status.
var ValidBillStatuses = map[string]bool{
	BillStatusDraft:     true,
	BillStatusCompleted: true,
	BillStatusCancelled: true,
	BillStatusRefunded:  true,
}

// ValidPaymentMethods is the set of legal values for Bill.PaymentMethod.
var ValidPaymentMethods = map[string]bool{
	PaymentCash:       true,
	PaymentCard:       true,
	PaymentUPI:        true,
	PaymentNetBanking: true,
}

// BillItem is a frozen line-item snapshot. It copies medicine details at
// billing time so historical bills survive catalog edits and deletions.
type BillItem struct {
	ID         string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BillID     string  `json:"-" gorm:"index;type:varchar(36)"`
	MedicineID string  `json:"medicine_id" gorm:"type:varchar(36)"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	Strength   string  `json:"strength"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	TotalPrice float64 `json:"total_price" validate:"gte=0"`
}

// Customer is an optional point-of-sale customer snapshot.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// Bill is the immutable record of a completed sale. Item snapshots and
// totals never change after creation; only Status transitions.
type Bill struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BillNumber    string     `json:"bill_number" gorm:"uniqueIndex;type:varchar(30)"`
	WorkerID      string     `json:"worker_id" gorm:"index;type:varchar(36)"`
	Customer      Customer   `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Items         []BillItem `json:"items" gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	Subtotal      float64    `json:"subtotal" validate:"gte=0"`
	Tax           float64    `json:"tax" validate:"gte=0"`
	Discount      float64    `json:"discount" validate:"gte=0"`
	TotalAmount   float64    `json:"total_amount" validate:"gte=0"`
	PaymentMethod string     `json:"payment_method" gorm:"type:varchar(20);default:Cash"`
	Status        string     `json:"status" gorm:"index;type:varchar(20);default:Completed"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TotalQuantity sums the billed units across all line items.
func (b *Bill) TotalQuantity() int {
	total := 0
	for _, item := range b.Items {
		total += item.Quantity
	}
	return total
}
