package models

import "time"

// CartItem is a purchase intent inside a cart. An item lives either in the
// active list or in the saved-for-later list, selected by SavedForLater.
type CartItem struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID        string     `json:"-" gorm:"index;type:varchar(36)"`
	MedicineID    string     `json:"medicine_id" gorm:"index;type:varchar(36)" validate:"required"`
	Quantity      int        `json:"quantity" validate:"required,min=1,max=100"`
	PriceAtTime   float64    `json:"price_at_time" validate:"gte=0"` // unit price snapshot captured at add-time
	AddedAt       time.Time  `json:"added_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	SavedForLater bool       `json:"saved_for_later" gorm:"index;default:false"`
	SavedAt       *time.Time `json:"saved_at,omitempty"`
}

// Cart is the single mutable cart a worker owns.
type Cart struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	WorkerID     string     `json:"worker_id" gorm:"uniqueIndex;type:varchar(36)" validate:"required"`
	Items        []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	TotalItems   int        `json:"total_items"`
	TotalAmount  float64    `json:"total_amount"`
	LastSyncedAt time.Time  `json:"last_synced_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CartTTL is the rolling inactivity window after which a cart is
// garbage-collected.
const CartTTL = 30 * 24 * time.Hour

// ActiveItems returns the items counted toward the cart totals.
func (c *Cart) ActiveItems() []CartItem {
	active := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if !item.SavedForLater {
			active = append(active, item)
		}
	}
	return active
}

// SavedItems returns the items parked for later.
func (c *Cart) SavedItems() []CartItem {
	saved := make([]CartItem, 0)
	for _, item := range c.Items {
		if item.SavedForLater {
			saved = append(saved, item)
		}
	}
	return saved
}

// FindItem locates an item by ID in either list. Returns nil if absent.
func (c *Cart) FindItem(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindByMedicine locates an active item referencing the given medicine.
func (c *Cart) FindByMedicine(medicineID string) *CartItem {
	for i := range c.Items {
		if !c.Items[i].SavedForLater && c.Items[i].MedicineID == medicineID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem drops an item (active or saved) by ID. Returns false if the
// item was not present.
func (c *Cart) RemoveItem(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// RecalculateTotals recomputes TotalItems and TotalAmount by scanning the
// active items. Totals are never adjusted incrementally; recomputing from
// source is what keeps them from drifting.
func (c *Cart) RecalculateTotals() {
	totalItems := 0
	totalAmount := 0.0
	for _, item := range c.Items {
		if item.SavedForLater {
			continue
		}
		totalItems += item.Quantity
		totalAmount += item.PriceAtTime * float64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
	c.LastSyncedAt = time.Now()
}

// Touch extends the cart's expiry window after a modification.
func (c *Cart) Touch() {
	c.ExpiresAt = time.Now().Add(CartTTL)
}
