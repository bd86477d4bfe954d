package catalog

import (
	"context"
	"fmt"

	"github.com/keisui/shopcore/internal/domain/actor"
	domain "github.com/keisui/shopcore/internal/domain/catalog"
	"github.com/keisui/shopcore/internal/domain/order"
	"github.com/keisui/shopcore/internal/pkg/logging"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Service is the catalog management surface. It sits outside the order
// path: products created here are only ever mutated afterwards by the
// reservation engine (decrement) and cancellation restore (increment).
type Service struct {
	products    domain.Repository
	idGenerator IDGenerator
}

func NewService(products domain.Repository, idGen IDGenerator) *Service {
	return &Service{products: products, idGenerator: idGen}
}

type CreateProductInput struct {
	Name  string
	Price int64
	Stock int
}

// Create adds a product to the catalog. Admin only.
func (s *Service) Create(ctx context.Context, act actor.Actor, input CreateProductInput) (*domain.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if !act.IsAdmin() {
		return nil, fmt.Errorf("%w: catalog management requires admin role", order.ErrForbidden)
	}
	if input.Name == "" {
		return nil, domain.ErrInvalidName
	}

	product, err := domain.NewProduct(s.idGenerator.NewID(), input.Name, input.Price, input.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		logger.Error("product_save_failed", zap.String("product_id", product.ID), zap.Error(err))
		return nil, fmt.Errorf("catalog: save: %w", err)
	}

	logger.Info("product_created",
		zap.String("product_id", product.ID),
		zap.Int64("price", product.Price),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

// List returns the whole catalog; browsing needs no privilege.
func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.FindAll(ctx)
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.products.FindByID(ctx, id)
}
