package handlers

import (
	"errors"
	"fmt"
	"log"

	"pharmapos/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// respondServiceError maps the service error taxonomy to HTTP responses.
// Anything outside the taxonomy is an unexpected storage-layer fault and
// surfaces as a generic internal error.
func respondServiceError(c *fiber.Ctx, err error) error {
	var stockErr *services.InsufficientStockError
	var quantityErr *services.InvalidQuantityError

	switch {
	case errors.Is(err, services.ErrMedicineNotFound),
		errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrBillNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrMedicineUnavailable),
		errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success":   false,
			"message":   fmt.Sprintf("Insufficient stock. Only %d items available", stockErr.Available),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
			"medicine":  stockErr.Name,
		})
	case errors.As(err, &quantityErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": quantityErr.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied",
		})
	default:
		log.Printf("Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal server error",
		})
	}
}

// respondValidationErrors reports struct validation failures field by field.
func respondValidationErrors(c *fiber.Ctx, err error) error {
	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// workerIdentity pulls the authenticated worker ID and role out of the
// request context set by the JWT middleware.
func workerIdentity(c *fiber.Ctx) (string, string) {
	workerID, _ := c.Locals("worker_id").(string)
	role, _ := c.Locals("role").(string)
	return workerID, role
}
