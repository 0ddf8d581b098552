package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"catalog/internal/models"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. It honors the same filter, sort, and pagination
// semantics as the MongoDB implementation, with text search approximated as
// a case-insensitive substring match over name and description. It backs
// the handler tests and local runs without a database.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

func matches(p *models.Product, q ListQuery) bool {
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.InStock != nil && p.InStock != *q.InStock {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// compareField orders two products by one sort field. Unknown fields
// compare equal, which leaves the relative order to later sort keys.
func compareField(a, b *models.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "category":
		return strings.Compare(a.Category, b.Category)
	case "price":
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	case "inStock":
		switch {
		case !a.InStock && b.InStock:
			return -1
		case a.InStock && !b.InStock:
			return 1
		}
		return 0
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

// List filters, sorts, and windows the stored products, and returns the
// total count of matches regardless of the window.
func (r *MemoryProductRepository) List(ctx context.Context, q ListQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(&p, q) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		for _, k := range q.Sort {
			c := compareField(&matched[i], &matched[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	total := int64(len(matched))
	if q.Offset >= total {
		return []models.Product{}, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

// GetByID returns a product by its ID, or ErrNotFound.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// Create validates and stores a new product with assigned id and timestamps.
func (r *MemoryProductRepository) Create(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	product := models.Product{InStock: true}
	in.Apply(&product)
	if msgs := product.Check(); len(msgs) > 0 {
		return nil, &ValidationError{Errors: msgs}
	}

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID.Hex()] = product
	return &product, nil
}

// Update merges the supplied fields onto the stored record, re-validates,
// and refreshes updatedAt.
func (r *MemoryProductRepository) Update(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}

	merged := existing
	in.Apply(&merged)
	if msgs := merged.Check(); len(msgs) > 0 {
		return nil, &ValidationError{Errors: msgs}
	}
	merged.UpdatedAt = time.Now().UTC()

	r.products[id] = merged
	return &merged, nil
}

// Delete removes a product by its ID, or returns ErrNotFound.
func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// Categories returns the distinct category values currently in use.
func (r *MemoryProductRepository) Categories(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range r.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories, nil
}
