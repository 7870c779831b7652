package handlers

import (
	"log"

	"pharmapos/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the per-worker cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app. All cart
// routes assume the JWT middleware already ran.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Get("/summary", h.HandleSummary)
	cartRoutes.Post("/add", h.HandleAddItem)
	cartRoutes.Put("/update/:itemId", h.HandleUpdateQuantity)
	cartRoutes.Delete("/remove/:itemId", h.HandleRemoveItem)
	cartRoutes.Delete("/clear", h.HandleClearCart)
	cartRoutes.Post("/sync", h.HandleSyncCart)
	cartRoutes.Post("/save-for-later", h.HandleSaveForLater)
	cartRoutes.Post("/move-to-cart", h.HandleMoveToCart)
}

// HandleGetCart returns the worker's cart annotated against current
// catalog state.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)
	cart, err := h.service.GetCart(workerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"cart":    cart,
	})
}

// HandleSummary returns the lightweight cart overview.
func (h *CartHandler) HandleSummary(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)
	summary, err := h.service.Summary(workerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"summary": summary,
	})
}

// AddItemRequest is the request body for adding an item to the cart.
type AddItemRequest struct {
	MedicineID string `json:"medicine_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=100"`
}

// HandleAddItem puts a medicine into the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-to-cart request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	cart, err := h.service.AddItem(workerID, req.MedicineID, req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item added to cart successfully",
		"cart":    cart,
	})
}

// UpdateQuantityRequest is the request body for changing an item quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100"`
}

// HandleUpdateQuantity sets a new quantity for a cart item.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)
	itemID := c.Params("itemId")

	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	cart, err := h.service.UpdateQuantity(workerID, itemID, req.Quantity)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart updated successfully",
		"cart":    cart,
	})
}

// HandleRemoveItem removes an item from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)
	itemID := c.Params("itemId")

	cart, err := h.service.RemoveItem(workerID, itemID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item removed from cart successfully",
		"cart":    cart,
	})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	cart, err := h.service.ClearCart(workerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cart cleared successfully",
		"cart":    cart,
	})
}

// HandleSyncCart reconciles the cart against current catalog state and
// reports what changed.
func (h *CartHandler) HandleSyncCart(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	result, err := h.service.SyncCart(workerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	message := "Cart is up to date"
	if result.HasChanges {
		message = "Cart has been updated"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"cart":    result.Cart,
		"changes": fiber.Map{
			"has_changes": result.HasChanges,
			"items":       result.Changes,
		},
	})
}

// ItemIDRequest names an item for save-for-later / move-to-cart.
type ItemIDRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

// HandleSaveForLater parks an active item.
func (h *CartHandler) HandleSaveForLater(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	var req ItemIDRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	cart, err := h.service.SaveForLater(workerID, req.ItemID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item saved for later",
		"cart":    cart,
	})
}

// HandleMoveToCart returns a saved item to the active list.
func (h *CartHandler) HandleMoveToCart(c *fiber.Ctx) error {
	workerID, _ := workerIdentity(c)

	var req ItemIDRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	cart, err := h.service.MoveToCart(workerID, req.ItemID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Item moved back to cart",
		"cart":    cart,
	})
}
