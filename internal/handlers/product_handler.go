package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app. The
// categories route must come before the id route or it would be captured
// as a product id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleListProducts)
	products.Get("/categories", h.HandleListCategories)
	products.Get("/:id", h.HandleGetProduct)
	products.Post("/", h.HandleCreateProduct)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

// decodeProductInput parses and validates a product write payload. It
// returns a ValidationError listing every violation, or a 400 for a body
// that is not JSON at all.
func decodeProductInput(c *fiber.Ctx) (*models.ProductInput, error) {
	var in models.ProductInput
	var typeBad []string
	if err := c.BodyParser(&in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) || typeErr.Field == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		typeBad = append(typeBad, typeErr.Field)
	}
	if errs := in.Violations(typeBad); len(errs) > 0 {
		return nil, &repositories.ValidationError{Errors: errs}
	}
	return &in, nil
}

// HandleListProducts returns one page of products with filtering, sorting,
// and pagination driven by query parameters.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	q, page, limit := buildListQuery(c.Queries())

	products, total, err := h.service.ListProducts(c.UserContext(), q)
	if err != nil {
		return err
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"results": len(products),
		"pagination": fiber.Map{
			"totalProducts": total,
			"totalPages":    totalPages,
			"currentPage":   page,
			"limit":         limit,
		},
		"data": fiber.Map{
			"products": products,
		},
	})
}

// HandleGetProduct returns a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"product": product,
		},
	})
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in, err := decodeProductInput(c)
	if err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"product": product,
		},
	})
}

// HandleUpdateProduct updates an existing product. The payload is validated
// the same way as on create; only the supplied fields are replaced.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	in, err := decodeProductInput(c)
	if err != nil {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"product": product,
		},
	})
}

// HandleDeleteProduct deletes a product by its ID. Success is a 204 with an
// empty body.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListCategories returns the distinct categories in use.
func (h *ProductHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"results": len(categories),
		"data": fiber.Map{
			"categories": categories,
		},
	})
}
