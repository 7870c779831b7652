package repositories

import "errors"

// Sentinel errors shared by all repository implementations so services can
// branch on them with errors.Is regardless of the backing store.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock is returned by conditional stock decrements
	// when the current stock is below the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is returned when an insert loses a uniqueness race,
	// e.g. two concurrent checkouts minting the same bill number.
	ErrConflict = errors.New("conflicting record")
)
