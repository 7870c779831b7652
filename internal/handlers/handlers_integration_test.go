package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"pharmapos/internal/handlers"
	"pharmapos/internal/middleware"
	"pharmapos/internal/models"
	"pharmapos/internal/repositories"
	"pharmapos/internal/services"
	"pharmapos/pkg/pdf"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services wired the same way main does.
func setupApp() (*fiber.App, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.Medicine{},
		&models.Worker{},
		&models.Cart{},
		&models.CartItem{},
		&models.Bill{},
		&models.BillItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	medicineRepo := repositories.NewGORMMedicineRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	billRepo := repositories.NewGORMBillRepository(db)
	workerRepo := repositories.NewGORMWorkerRepository(db)

	renderer := pdf.NewBillRenderer("Test Pharmacy", "Testing Only", "+91-0000000000", "test@pharmacy.test")
	medicineService := services.NewMedicineService(medicineRepo)
	cartService := services.NewCartService(cartRepo, medicineRepo)
	billingService := services.NewBillingService(billRepo, medicineRepo, workerRepo, renderer, nil) // nil publisher
	authService := services.NewAuthService(workerRepo, jwtSecret)

	medicineHandler := handlers.NewMedicineHandler(medicineService)
	cartHandler := handlers.NewCartHandler(cartService)
	billHandler := handlers.NewBillHandler(billingService, cartService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	medicineHandler.RegisterRoutes(protectedRoutes)
	cartHandler.RegisterRoutes(protectedRoutes)
	billHandler.RegisterRoutes(protectedRoutes)

	return app, nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// registerAndLogin creates a worker account and returns its bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, name, email, employeeID, role string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"name":        name,
		"email":       email,
		"password":    "password123",
		"phone":       "9876543210",
		"employee_id": employeeID,
		"role":        role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// createMedicine creates a catalog entry and returns its ID.
func createMedicine(t *testing.T, app *fiber.App, token, name string, price float64, stock int) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/v1/medicines/", token, map[string]interface{}{
		"name":     name,
		"brand":    name + " Brand",
		"company":  "Acme Pharma",
		"strength": "500mg",
		"category": "Analgesic",
		"price":    price,
		"stock":    stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	worker := map[string]interface{}{
		"name":        "Asha Verma",
		"email":       "asha.auth@pharmacy.test",
		"password":    "password123",
		"phone":       "9876543210",
		"employee_id": "AUTH001",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", worker)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate registration is a conflict.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", worker)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Valid credentials yield a token.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "asha.auth@pharmacy.test",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	// Wrong password does not.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "asha.auth@pharmacy.test",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/medicines/", "garbage.token.here", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCartCheckoutFlow(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	token := registerAndLogin(t, app, "Ravi Kumar", "ravi.flow@pharmacy.test", "FLOW001", "worker")
	medicineID := createMedicine(t, app, token, "Paracetamol Flow", 50.0, 10)

	// Add three units to the cart.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/cart/add", token, map[string]interface{}{
		"medicine_id": medicineID,
		"quantity":    3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	cart := body["cart"].(map[string]interface{})
	assert.EqualValues(t, 3, cart["total_items"])
	assert.InDelta(t, 150.0, cart["total_amount"].(float64), 0.001)

	// Asking for more than the remaining stock is rejected.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/cart/add", token, map[string]interface{}{
		"medicine_id": medicineID,
		"quantity":    20,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Checkout streams back a PDF and names the bill in the headers.
	resp = doJSON(t, app, http.MethodPost, "/api/v1/bills/generate", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"medicine_id": medicineID, "quantity": 3},
		},
		"customer":       map[string]string{"name": "Walk-in"},
		"payment_method": "Cash",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	billID := resp.Header.Get("X-Bill-Id")
	billNumber := resp.Header.Get("X-Bill-Number")
	assert.NotEmpty(t, billID)
	assert.True(t, strings.HasPrefix(billNumber, "BILL-"), billNumber)
	artifact, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(artifact, []byte("%PDF")))

	// Stock was decremented by the sale.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/medicines/"+medicineID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	medicine := decodeBody(t, resp)
	assert.EqualValues(t, 7, medicine["stock"])

	// The cart was cleared after checkout.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/cart/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	cart = body["cart"].(map[string]interface{})
	assert.EqualValues(t, 0, cart["total_items"])

	// The bill shows up in history and reads back frozen.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody(t, resp)
	assert.GreaterOrEqual(t, history["total_count"].(float64), 1.0)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/"+billID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bill := decodeBody(t, resp)
	assert.Equal(t, billNumber, bill["bill_number"])
	assert.InDelta(t, 150.0, bill["subtotal"].(float64), 0.001)
	assert.InDelta(t, 7.5, bill["tax"].(float64), 0.001)
	assert.InDelta(t, 157.5, bill["total_amount"].(float64), 0.001)
	assert.Equal(t, "Completed", bill["status"])

	// The PDF can be re-downloaded later.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/"+billID+"/download", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
}

func TestBillStatusTransitionRequiresOwner(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	workerToken := registerAndLogin(t, app, "Meera Nair", "meera.status@pharmacy.test", "STAT001", "worker")
	ownerToken := registerAndLogin(t, app, "Owner One", "owner.status@pharmacy.test", "STAT002", "owner")
	medicineID := createMedicine(t, app, workerToken, "Ibuprofen Status", 100.0, 5)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bills/generate", workerToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"medicine_id": medicineID, "quantity": 1},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	billID := resp.Header.Get("X-Bill-Id")
	require.NotEmpty(t, billID)

	// A worker cannot transition bill status.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/bills/"+billID+"/status", workerToken, map[string]string{
		"status": "Cancelled",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner can.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/bills/"+billID+"/status", ownerToken, map[string]string{
		"status": "Cancelled",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	bill := body["bill"].(map[string]interface{})
	assert.Equal(t, "Cancelled", bill["status"])

	// Unknown statuses never pass validation.
	resp = doJSON(t, app, http.MethodPatch, "/api/v1/bills/"+billID+"/status", ownerToken, map[string]string{
		"status": "Shipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBillHistoryIsWorkerScoped(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	firstToken := registerAndLogin(t, app, "First Scoped", "first.scope@pharmacy.test", "SCOPE001", "worker")
	secondToken := registerAndLogin(t, app, "Second Scoped", "second.scope@pharmacy.test", "SCOPE002", "worker")
	medicineID := createMedicine(t, app, firstToken, "Cetirizine Scope", 20.0, 50)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bills/generate", firstToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"medicine_id": medicineID, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	billID := resp.Header.Get("X-Bill-Id")

	// The second worker cannot read the first worker's bill.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/"+billID, secondToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Nor does it appear in their history.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/history", secondToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody(t, resp)
	assert.EqualValues(t, 0, history["total_count"])
}

func TestMedicineDeleteIsOwnerOnly(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	workerToken := registerAndLogin(t, app, "Delete Worker", "worker.delete@pharmacy.test", "DEL001", "worker")
	ownerToken := registerAndLogin(t, app, "Delete Owner", "owner.delete@pharmacy.test", "DEL002", "owner")
	medicineID := createMedicine(t, app, workerToken, "Amoxicillin Delete", 80.0, 10)

	// A worker cannot remove a catalog entry.
	resp := doJSON(t, app, http.MethodDelete, "/api/v1/medicines/"+medicineID, workerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The owner can, and a second delete reports not found.
	resp = doJSON(t, app, http.MethodDelete, "/api/v1/medicines/"+medicineID, ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/v1/medicines/"+medicineID, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBillAnalyticsIsOwnerOnly(t *testing.T) {
	app, err := setupApp()
	require.NoError(t, err)

	workerToken := registerAndLogin(t, app, "Analytics Worker", "worker.analytics@pharmacy.test", "ANA001", "worker")
	ownerToken := registerAndLogin(t, app, "Analytics Owner", "owner.analytics@pharmacy.test", "ANA002", "owner")
	medicineID := createMedicine(t, app, workerToken, "Atorvastatin Analytics", 120.0, 20)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/bills/generate", workerToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"medicine_id": medicineID, "quantity": 4},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Workers never see the dashboard.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/analytics/summary", workerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/bills/analytics/summary", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	summary, ok := body["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, summary["total_bills"].(float64), 1.0)
	assert.Greater(t, summary["total_revenue"].(float64), 0.0)
	assert.GreaterOrEqual(t, summary["total_items_sold"].(float64), 4.0)

	topMedicines, ok := body["top_medicines"].([]interface{})
	require.True(t, ok)
	names := make([]string, 0, len(topMedicines))
	for _, entry := range topMedicines {
		row, ok := entry.(map[string]interface{})
		require.True(t, ok)
		names = append(names, row["name"].(string))
	}
	assert.Contains(t, names, "Atorvastatin Analytics")
}
