package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog/internal/models"
)

// MongoProductRepository is a MongoDB implementation of ProductRepository.
type MongoProductRepository struct {
	coll *mongo.Collection
}

// NewMongoProductRepository creates a new instance of MongoProductRepository.
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		coll: db.Collection("products"),
	}
}

// EnsureIndexes creates the indexes the catalog queries rely on: a text
// index over name and description for search, and single-field indexes on
// name and category for equality filters. Safe to call on every startup.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

// buildFilter translates a ListQuery into a MongoDB filter document. All
// supplied conditions combine as a logical AND.
func buildFilter(q ListQuery) bson.M {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.InStock != nil {
		filter["inStock"] = *q.InStock
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	return filter
}

// List returns one page of products plus the total count matching the
// filter. The two queries are independent; there is no shared snapshot, so
// the count may drift from the page under concurrent writes.
func (r *MongoProductRepository) List(ctx context.Context, q ListQuery) ([]models.Product, int64, error) {
	filter := buildFilter(q)

	sort := bson.D{}
	for _, k := range q.Sort {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: k.Field, Value: dir})
	}

	opts := options.Find().SetSort(sort).SetSkip(q.Offset).SetLimit(q.Limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID. A malformed id is reported
// as not found, same as an absent one.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var product models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &product, nil
}

// Create validates the record against the schema constraints, assigns id
// and timestamps, and persists it.
func (r *MongoProductRepository) Create(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	product := models.Product{InStock: true}
	in.Apply(&product)
	if msgs := product.Check(); len(msgs) > 0 {
		return nil, &ValidationError{Errors: msgs}
	}

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &ConflictError{Field: duplicateKeyField(err)}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update merges the supplied fields onto the stored record, re-validates
// the merged record, refreshes updatedAt, and persists the result. The read
// and the write are two single-document operations, not a transaction.
func (r *MongoProductRepository) Update(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *existing
	in.Apply(&merged)
	if msgs := merged.Check(); len(msgs) > 0 {
		return nil, &ValidationError{Errors: msgs}
	}
	merged.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"name":        merged.Name,
		"description": merged.Description,
		"price":       merged.Price,
		"category":    merged.Category,
		"imageUrl":    merged.ImageURL,
		"inStock":     merged.InStock,
		"updatedAt":   merged.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": existing.ID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, &ConflictError{Field: duplicateKeyField(err)}
		}
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes a product by its ID. Deleting an absent product reports
// not found, so a second delete of the same id is a clean 404.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct category values currently in use.
func (r *MongoProductRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}

// duplicateKeyField extracts the indexed field name from a duplicate-key
// write error. Falls back to "id" when the index name cannot be parsed.
func duplicateKeyField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code != 11000 {
				continue
			}
			if i := strings.Index(e.Message, "index: "); i >= 0 {
				name := e.Message[i+len("index: "):]
				if j := strings.IndexAny(name, "_ "); j > 0 {
					return name[:j]
				}
			}
		}
	}
	return "id"
}
