// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/productcatalog/internal/product/events"
	"github.com/abgdnv/productcatalog/internal/product/store"
	"github.com/abgdnv/productcatalog/pkg/messaging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns all available products in insertion order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// Create adds a new product to the system and returns its id.
	// Returns a StorageError if the product cannot be stored.
	Create(ctx context.Context, product ProductCreateDto) (int64, error)

	// Ping reports whether the underlying store is reachable.
	Ping(ctx context.Context) error
}

// Service implements ProductService and provides methods to manage products.
type Service struct {
	repository      store.ProductStore
	publisher       messaging.Publisher
	productsCounter metric.Int64Counter
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates a new instance of ProductService with the provided repository.
// Created products are announced through publisher.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("product-service")
	productsCounter, err := meter.Int64Counter("products_created", metric.WithDescription("Total number of created products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_created counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		repository:      repo,
		publisher:       publisher,
		productsCounter: productsCounter,
		logger:          logger.With("component", "service"),
		now:             time.Now,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
// Price is a pointer so that an absent price can be told apart from a zero price.
type ProductCreateDto struct {
	Name  string   `json:"name"  validate:"required"`
	Price *float64 `json:"price" validate:"required"`
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FindAll retrieves a list of all products and returns them as ProductDTOs.
// Returns an empty slice if no products exist or error if the retrieval fails.
func (s *Service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))

	for i, item := range products {
		productDTOs[i] = toDto(item)
	}

	return productDTOs, nil
}

// Create stores a new product and returns the id assigned to it.
// The caller is expected to have validated the dto.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (int64, error) {
	id, err := s.repository.Create(ctx, product.Name, *product.Price)
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	s.productsCounter.Add(ctx, 1)

	event := events.ProductCreatedEvent{
		EventID:   uuid.New(),
		ProductID: id,
		Name:      product.Name,
		Price:     *product.Price,
		CreatedAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ProductCreatedEvent", "product_id", id, "error", err)
	}

	return id, nil
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product store.Product) ProductDto {
	return ProductDto{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
	}
}
