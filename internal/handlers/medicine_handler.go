package handlers

import (
	"errors"
	"log"
	"strconv"

	"pharmapos/internal/middleware"
	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
	"pharmapos/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MedicineHandler handles HTTP requests for the catalog.
type MedicineHandler struct {
	service  *services.MedicineService
	validate *validator.Validate
}

// NewMedicineHandler creates a new MedicineHandler.
func NewMedicineHandler(service *services.MedicineService) *MedicineHandler {
	return &MedicineHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the catalog routes with the Fiber app. Deleting
// a catalog entry is owner-only; workers keep read/write access for day to
// day stock corrections.
func (h *MedicineHandler) RegisterRoutes(router fiber.Router) {
	medicineRoutes := router.Group("/medicines")
	medicineRoutes.Get("/", h.HandleGetMedicines)
	medicineRoutes.Get("/search", h.HandleSearch)
	medicineRoutes.Get("/:id", h.HandleGetMedicineByID)
	medicineRoutes.Post("/", h.HandleCreateMedicine)
	medicineRoutes.Put("/:id", h.HandleUpdateMedicine)
	medicineRoutes.Delete("/:id", middleware.RequireRole(models.RoleOwner), h.HandleDeleteMedicine)
}

// HandleGetMedicines retrieves all medicines.
func (h *MedicineHandler) HandleGetMedicines(c *fiber.Ctx) error {
	medicines, err := h.service.GetAllMedicines()
	if err != nil {
		log.Printf("Error getting all medicines: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve medicines",
		})
	}
	return c.JSON(medicines)
}

// HandleSearch finds catalog entries matching a text query.
func (h *MedicineHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'q' is required",
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	medicines, err := h.service.SearchMedicines(query, limit)
	if err != nil {
		log.Printf("Error searching medicines for %q: %v", query, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search medicines",
		})
	}
	return c.JSON(fiber.Map{
		"query":   query,
		"results": medicines,
	})
}

// HandleGetMedicineByID retrieves a single medicine by its ID.
func (h *MedicineHandler) HandleGetMedicineByID(c *fiber.Ctx) error {
	medicineID := c.Params("id")
	medicine, err := h.service.GetMedicineByID(medicineID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Medicine not found",
			})
		}
		log.Printf("Error getting medicine by ID %s: %v", medicineID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve medicine",
		})
	}
	return c.JSON(medicine)
}

// HandleCreateMedicine creates a new catalog entry.
func (h *MedicineHandler) HandleCreateMedicine(c *fiber.Ctx) error {
	var medicine models.Medicine
	if err := c.BodyParser(&medicine); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(medicine); err != nil {
		return respondValidationErrors(c, err)
	}

	if err := h.service.CreateMedicine(&medicine); err != nil {
		log.Printf("Error creating medicine: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create medicine",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(medicine)
}

// HandleUpdateMedicine updates an existing catalog entry.
func (h *MedicineHandler) HandleUpdateMedicine(c *fiber.Ctx) error {
	var medicine models.Medicine
	if err := c.BodyParser(&medicine); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	medicine.ID = c.Params("id")
	if err := h.validate.Struct(medicine); err != nil {
		return respondValidationErrors(c, err)
	}

	if err := h.service.UpdateMedicine(&medicine); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Medicine not found",
			})
		}
		log.Printf("Error updating medicine %s: %v", medicine.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update medicine",
		})
	}
	return c.JSON(medicine)
}

// HandleDeleteMedicine deletes a catalog entry.
func (h *MedicineHandler) HandleDeleteMedicine(c *fiber.Ctx) error {
	medicineID := c.Params("id")
	if err := h.service.DeleteMedicine(medicineID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Medicine not found",
			})
		}
		log.Printf("Error deleting medicine %s: %v", medicineID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete medicine",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Medicine deleted successfully",
	})
}
