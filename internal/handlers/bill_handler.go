package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"pharmapos/internal/repositories"
	"pharmapos/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BillHandler handles HTTP requests for billing and checkout.
type BillHandler struct {
	service  *services.BillingService
	cartSvc  *services.CartService
	validate *validator.Validate
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(service *services.BillingService, cartSvc *services.CartService) *BillHandler {
	return &BillHandler{
		service:  service,
		cartSvc:  cartSvc,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the billing routes with the Fiber app.
func (h *BillHandler) RegisterRoutes(router fiber.Router) {
	billRoutes := router.Group("/bills")
	billRoutes.Post("/generate", h.HandleGenerateBill)
	billRoutes.Get("/history", h.HandleBillHistory)
	billRoutes.Get("/analytics/summary", h.HandleBillAnalytics)
	billRoutes.Get("/:id", h.HandleGetBill)
	billRoutes.Get("/:id/download", h.HandleDownloadBill)
	billRoutes.Patch("/:id/status", h.HandleUpdateBillStatus)
	billRoutes.Delete("/:id", h.HandleCancelBill)
}

// HandleGenerateBill runs checkout and streams back the PDF artifact.
// On success the caller's cart is cleared as a courtesy; billing itself
// never touches carts, so a failed clear does not fail the checkout.
func (h *BillHandler) HandleGenerateBill(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	var req services.BillRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing bill request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	bill, artifact, err := h.service.GenerateBill(workerID, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	if _, clearErr := h.cartSvc.ClearCart(workerID); clearErr != nil && !errors.Is(clearErr, services.ErrCartNotFound) {
		log.Printf("Warning: failed to clear cart for worker %s after bill %s: %v",
			workerID, bill.BillNumber, clearErr)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bill-%s.pdf"`, bill.BillNumber))
	c.Set("X-Bill-Id", bill.ID)
	c.Set("X-Bill-Number", bill.BillNumber)
	return c.Send(artifact)
}

// HandleBillHistory returns a page of bill history, worker-scoped unless
// the requester is an owner.
func (h *BillHandler) HandleBillHistory(c *fiber.Ctx) error {
	workerID, role := workerIdentity(c)

	filter := repositories.BillFilter{
		Status: c.Query("status"),
	}
	filter.Page, _ = strconv.Atoi(c.Query("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if startDate := c.Query("startDate"); startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartDate = &t
		}
	}
	if endDate := c.Query("endDate"); endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			filter.EndDate = &t
		}
	}

	history, err := h.service.ListBills(workerID, role, filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(history)
}

// HandleBillAnalytics returns aggregate sales figures and the best-selling
// medicines, optionally bounded by startDate/endDate (owner only).
func (h *BillHandler) HandleBillAnalytics(c *fiber.Ctx) error {
	_, role := workerIdentity(c)

	var filter repositories.AnalyticsFilter
	if startDate := c.Query("startDate"); startDate != "" {
		if t, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartDate = &t
		}
	}
	if endDate := c.Query("endDate"); endDate != "" {
		if t, err := time.Parse("2006-01-02", endDate); err == nil {
			filter.EndDate = &t
		}
	}

	analytics, err := h.service.Analytics(role, filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(analytics)
}

// HandleGetBill returns a single bill.
func (h *BillHandler) HandleGetBill(c *fiber.Ctx) error {
	workerID, role := workerIdentity(c)

	bill, err := h.service.GetBill(workerID, role, c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(bill)
}

// HandleDownloadBill re-renders and streams the PDF for an existing bill.
func (h *BillHandler) HandleDownloadBill(c *fiber.Ctx) error {
	workerID, role := workerIdentity(c)

	bill, artifact, err := h.service.RenderBill(workerID, role, c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bill-%s.pdf"`, bill.BillNumber))
	return c.Send(artifact)
}

// UpdateBillStatusRequest is the request body for a status transition.
type UpdateBillStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Draft Completed Cancelled Refunded"`
}

// HandleUpdateBillStatus transitions a bill's status (owner only).
func (h *BillHandler) HandleUpdateBillStatus(c *fiber.Ctx) error {
	_, role := workerIdentity(c)

	var req UpdateBillStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	bill, err := h.service.UpdateBillStatus(role, c.Params("id"), req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bill status updated successfully",
		"bill":    bill,
	})
}

// HandleCancelBill soft-deletes a bill by marking it Cancelled (owner only).
func (h *BillHandler) HandleCancelBill(c *fiber.Ctx) error {
	_, role := workerIdentity(c)

	if _, err := h.service.CancelBill(role, c.Params("id")); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Bill cancelled successfully",
	})
}
