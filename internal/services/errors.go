package services

import (
	"errors"
	"fmt"
)

// Quantity bounds for a single cart or bill line.
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Sentinel errors returned by the cart and billing services. Handlers map
// these to HTTP statuses; none of them should crash the process.
var (
	ErrMedicineNotFound    = errors.New("medicine not found")
	ErrMedicineUnavailable = errors.New("medicine is not available")
	ErrCartNotFound        = errors.New("cart not found")
	ErrItemNotFound        = errors.New("item not found in cart")
	ErrBillNotFound        = errors.New("bill not found")
	ErrForbidden           = errors.New("access denied")
	ErrValidation          = errors.New("validation failed")
)

// InsufficientStockError reports a stock shortfall with enough detail to
// identify the offending line item.
type InsufficientStockError struct {
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (requested: %d, available: %d)",
		e.Name, e.Requested, e.Available)
}

// InvalidQuantityError reports a quantity outside the allowed bound.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between %d and %d, got %d",
		MinQuantity, MaxQuantity, e.Quantity)
}
