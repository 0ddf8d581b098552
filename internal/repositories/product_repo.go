package repositories

import (
	"context"

	"catalog/internal/models"
)

// SortKey is one field of a sort specification. Keys are applied in listed
// order as tie-breaks.
type SortKey struct {
	Field string
	Desc  bool
}

// ListQuery is the filter, sort, and pagination specification for List.
// Pointer fields are optional filters; nil means "no constraint".
type ListQuery struct {
	Category string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Sort     []SortKey
	Offset   int64
	Limit    int64
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns the matching page of products and the total count of
	// products matching the filter regardless of the window. The page and
	// the count are independent queries with no shared snapshot; under
	// concurrent writes they may disagree.
	List(ctx context.Context, q ListQuery) ([]models.Product, int64, error)
	// GetByID returns the product or ErrNotFound when the id is absent or
	// not a well-formed identifier.
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Create assigns id and timestamps, persists the record, and returns it.
	Create(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	// Update merges the supplied fields onto the existing record,
	// re-validates the merged record, refreshes updatedAt, and returns the
	// updated record, or ErrNotFound when the id does not exist.
	Update(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error)
	// Delete removes the record, or returns ErrNotFound when it is absent.
	Delete(ctx context.Context, id string) error
	// Categories returns the distinct category values currently in use,
	// in no particular order.
	Categories(ctx context.Context) ([]string, error)
}
