package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/rabbitmq"
)

// EventPublisher publishes product change events. The RabbitMQ client
// implements it; a nil publisher disables events.
type EventPublisher interface {
	PublishProductEvent(evt rabbitmq.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewProductService creates a new ProductService. events may be nil, in
// which case no change events are published.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts retrieves one page of products and the total match count.
func (s *ProductService) ListProducts(ctx context.Context, q repositories.ListQuery) ([]models.Product, int64, error) {
	return s.repo.List(ctx, q)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a new product and publishes a created event.
func (s *ProductService) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	product, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publish(rabbitmq.EventProductCreated, product.ID.Hex())
	return product, nil
}

// UpdateProduct updates an existing product and publishes an updated event.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in *models.ProductInput) (*models.Product, error) {
	product, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.publish(rabbitmq.EventProductUpdated, product.ID.Hex())
	return product, nil
}

// DeleteProduct deletes a product by its ID and publishes a deleted event.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(rabbitmq.EventProductDeleted, id)
	return nil
}

// ListCategories retrieves the distinct categories in use.
func (s *ProductService) ListCategories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// publish sends a product change event. Publishing is best effort: a
// failure is logged and never surfaced to the API caller, since the
// mutation itself already succeeded.
func (s *ProductService) publish(eventType, productID string) {
	if s.events == nil {
		return
	}
	evt := rabbitmq.ProductEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ProductID:  productID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishProductEvent(evt); err != nil {
		log.Warn().Err(err).Str("type", eventType).Str("productId", productID).
			Msg("failed to publish product event")
	}
}
