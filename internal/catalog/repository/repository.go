package repository

import (
	"context"
	"errors"

	"github.com/Pauloph98/giocakes/internal/catalog/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogRepository defines the interface for catalog data operations.
// Consumers define this interface, not the SQL implementation.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	Ping(ctx context.Context) error
	Close() error
}
