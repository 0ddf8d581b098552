package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

// setupApp builds a Fiber app wired to the in-memory store, mirroring the
// production wiring minus the broker and the database.
func setupApp() (*fiber.App, *repositories.MemoryProductRepository) {
	repo := repositories.NewMemoryProductRepository()
	service := services.NewProductService(repo, nil)
	handler := handlers.NewProductHandler(service)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(true),
	})
	api := app.Group("/api")
	handler.RegisterRoutes(api)
	app.Use(middleware.NotFoundHandler)

	return app, repo
}

type errorEnvelope struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

type productEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Product models.Product `json:"product"`
	} `json:"data"`
}

type listEnvelope struct {
	Status     string `json:"status"`
	Results    int    `json:"results"`
	Pagination struct {
		TotalProducts int64 `json:"totalProducts"`
		TotalPages    int64 `json:"totalPages"`
		CurrentPage   int   `json:"currentPage"`
		Limit         int   `json:"limit"`
	} `json:"pagination"`
	Data struct {
		Products []models.Product `json:"products"`
	} `json:"data"`
}

type categoriesEnvelope struct {
	Status  string `json:"status"`
	Results int    `json:"results"`
	Data    struct {
		Categories []string `json:"categories"`
	} `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, url string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func seedProduct(t *testing.T, repo *repositories.MemoryProductRepository, name, category string, price float64) *models.Product {
	t.Helper()
	p, err := repo.Create(context.Background(), &models.ProductInput{
		Name:        &name,
		Description: func() *string { s := name + " description"; return &s }(),
		Price:       &price,
		Category:    &category,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":        "Widget",
		"description": "A widget",
		"price":       9.99,
		"category":    "tools",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var env productEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "success", env.Status)

	p := env.Data.Product
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 9.99, p.Price)
	assert.True(t, p.InStock, "inStock must default to true")
	assert.False(t, p.ID.IsZero())
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestCreateProduct_MissingFields(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Widget",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var env errorEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Equal(t, []string{
		"Product description is required",
		"Product price is required",
		"Product category is required",
	}, env.Errors)
}

func TestCreateProduct_NonNumericPrice(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":        "Widget",
		"description": "A widget",
		"price":       "cheap",
		"category":    "tools",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var env errorEnvelope
	decodeBody(t, resp, &env)
	assert.Contains(t, env.Errors, "Product price must be a number")
	assert.NotContains(t, env.Errors, "Product price is required")
}

func TestListProducts_FilterAndSort(t *testing.T) {
	app, repo := setupApp()
	seedProduct(t, repo, "Hammer", "tools", 12.50)
	seedProduct(t, repo, "Screwdriver", "tools", 7.00)
	seedProduct(t, repo, "Wrench", "tools", 20.00)
	seedProduct(t, repo, "Mouse", "electronics", 10.00)

	resp := doJSON(t, app, http.MethodGet,
		"/api/products?category=tools&minPrice=5&maxPrice=15&sort=price:asc", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env listEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, 2, env.Results)
	assert.Equal(t, int64(2), env.Pagination.TotalProducts)

	require.Len(t, env.Data.Products, 2)
	assert.Equal(t, "Screwdriver", env.Data.Products[0].Name)
	assert.Equal(t, "Hammer", env.Data.Products[1].Name)
	for _, p := range env.Data.Products {
		assert.Equal(t, "tools", p.Category)
		assert.GreaterOrEqual(t, p.Price, 5.0)
		assert.LessOrEqual(t, p.Price, 15.0)
	}
}

func TestListProducts_Pagination(t *testing.T) {
	app, repo := setupApp()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		seedProduct(t, repo, name, "tools", 10)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/products?page=2&limit=2&sort=name:asc", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env listEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, 2, env.Results)
	assert.Equal(t, int64(5), env.Pagination.TotalProducts)
	assert.Equal(t, int64(3), env.Pagination.TotalPages)
	assert.Equal(t, 2, env.Pagination.CurrentPage)
	assert.Equal(t, 2, env.Pagination.Limit)

	require.Len(t, env.Data.Products, 2)
	assert.Equal(t, "C", env.Data.Products[0].Name)
	assert.Equal(t, "D", env.Data.Products[1].Name)
}

func TestListProducts_DefaultNewestFirst(t *testing.T) {
	app, repo := setupApp()
	first := seedProduct(t, repo, "Old", "tools", 1)
	second := seedProduct(t, repo, "New", "tools", 2)
	if !second.CreatedAt.After(first.CreatedAt) {
		t.Skip("creation timestamps not distinct")
	}

	resp := doJSON(t, app, http.MethodGet, "/api/products", nil)

	var env listEnvelope
	decodeBody(t, resp, &env)
	require.Len(t, env.Data.Products, 2)
	assert.Equal(t, "New", env.Data.Products[0].Name)
	assert.Equal(t, "Old", env.Data.Products[1].Name)
}

func TestGetProduct(t *testing.T) {
	app, repo := setupApp()
	created := seedProduct(t, repo, "Widget", "tools", 9.99)

	resp := doJSON(t, app, http.MethodGet, "/api/products/"+created.ID.Hex(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env productEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, created.ID, env.Data.Product.ID)
	assert.Equal(t, "Widget", env.Data.Product.Name)
}

func TestGetProduct_NotFound(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodGet, "/api/products/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env errorEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "Product not found", env.Message)
}

func TestUpdateProduct_PartialPreservesFields(t *testing.T) {
	app, repo := setupApp()
	created := seedProduct(t, repo, "Widget", "tools", 9.99)

	// The full required payload still applies on update; imageUrl and
	// inStock are left unspecified and must survive.
	resp := doJSON(t, app, http.MethodPut, "/api/products/"+created.ID.Hex(), map[string]interface{}{
		"name":        "Widget Pro",
		"description": created.Description,
		"price":       19.99,
		"category":    created.Category,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env productEnvelope
	decodeBody(t, resp, &env)
	p := env.Data.Product
	assert.Equal(t, "Widget Pro", p.Name)
	assert.Equal(t, 19.99, p.Price)
	assert.Equal(t, created.InStock, p.InStock)
	assert.Equal(t, created.CreatedAt.Unix(), p.CreatedAt.Unix())
	assert.False(t, p.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateProduct_MissingFieldsRejected(t *testing.T) {
	app, repo := setupApp()
	created := seedProduct(t, repo, "Widget", "tools", 9.99)

	resp := doJSON(t, app, http.MethodPut, "/api/products/"+created.ID.Hex(), map[string]interface{}{
		"price": 19.99,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var env errorEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Len(t, env.Errors, 3)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodPut, "/api/products/"+primitive.NewObjectID().Hex(), map[string]interface{}{
		"name":        "Widget",
		"description": "A widget",
		"price":       9.99,
		"category":    "tools",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteProduct(t *testing.T) {
	app, repo := setupApp()
	created := seedProduct(t, repo, "Widget", "tools", 9.99)
	url := "/api/products/" + created.ID.Hex()

	resp := doJSON(t, app, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting again reports not found, never a server error.
	resp = doJSON(t, app, http.MethodDelete, url, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListCategories(t *testing.T) {
	app, repo := setupApp()
	seedProduct(t, repo, "Hammer", "tools", 12.50)
	seedProduct(t, repo, "Mouse", "electronics", 25.00)
	seedProduct(t, repo, "Wrench", "tools", 20.00)

	resp := doJSON(t, app, http.MethodGet, "/api/products/categories", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var env categoriesEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, 2, env.Results)
	assert.ElementsMatch(t, []string{"tools", "electronics"}, env.Data.Categories)
}

func TestUnmatchedRoute(t *testing.T) {
	app, _ := setupApp()

	resp := doJSON(t, app, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env errorEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Message, "/api/nope")
}

func TestSearchCombinesWithFilters(t *testing.T) {
	app, repo := setupApp()
	seedProduct(t, repo, "Blue Widget", "tools", 9.99)
	seedProduct(t, repo, "Blue Mouse", "electronics", 25.00)

	resp := doJSON(t, app, http.MethodGet, "/api/products?search=blue&category=tools", nil)

	var env listEnvelope
	decodeBody(t, resp, &env)
	assert.Equal(t, 1, env.Results)
	require.Len(t, env.Data.Products, 1)
	assert.Equal(t, "Blue Widget", env.Data.Products[0].Name)
}
