package service

import (
	"context"
	"errors"

	"github.com/Pauloph98/giocakes/internal/catalog/domain"
	"github.com/Pauloph98/giocakes/internal/catalog/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrInvalidOperation = errors.New("invalid stock operation")
)

type CatalogService struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
	}
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx, filter)
}

// CheckStock reports whether quantity units of a product are available right
// now. It is a read, not a reservation: nothing stops a later mutation from
// consuming the same stock.
func (s *CatalogService) CheckStock(ctx context.Context, id int64, quantity int) (*domain.StockReport, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.StockReport{
		ProductID:    product.ID,
		CurrentStock: product.Stock,
		Requested:    quantity,
		Available:    quantity > 0 && quantity <= product.Stock,
	}, nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error) {
	if !op.Valid() {
		return nil, ErrInvalidOperation
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.repo.UpdateStock(ctx, id, quantity, op)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock updated",
		zap.Int64("product_id", id),
		zap.String("operation", string(op)),
		zap.Int("quantity", quantity),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// ProductsByCategory returns a category together with its active products.
func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID int64) (*domain.Category, []*domain.Product, error) {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}

	products, err := s.repo.ListProducts(ctx, domain.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return nil, nil, err
	}

	return category, products, nil
}

func (s *CatalogService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
