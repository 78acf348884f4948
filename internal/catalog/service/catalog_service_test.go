package service

import (
	"context"
	"testing"

	"github.com/Pauloph98/giocakes/internal/catalog/domain"
	"github.com/Pauloph98/giocakes/internal/catalog/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	products   map[int64]*domain.Product
	categories map[int64]*domain.Category
	err        error
}

func (m *mockRepository) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) ListProducts(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepository) UpdateStock(_ context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	switch op {
	case domain.StockAdd:
		p.Stock += quantity
	case domain.StockRemove:
		if quantity > p.Stock {
			return nil, repository.ErrInsufficientStock
		}
		p.Stock -= quantity
	case domain.StockSet:
		p.Stock = quantity
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) ListCategories(context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepository) GetCategory(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockRepository) Ping(context.Context) error {
	return m.err
}

func (m *mockRepository) Close() error { return nil }

func newTestService(repo *mockRepository) *CatalogService {
	return NewCatalogService(repo, zap.NewNop())
}

func TestCheckStock_Available(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}})

	report, err := sut.CheckStock(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, report.Available)
	assert.Equal(t, 5, report.CurrentStock)
	assert.Equal(t, 5, report.Requested)
}

func TestCheckStock_QuantityExceedsStock(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}})

	report, err := sut.CheckStock(context.Background(), 1, 6)
	require.NoError(t, err)
	assert.False(t, report.Available)
}

func TestCheckStock_NonPositiveQuantityNeverAvailable(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}})

	for _, quantity := range []int{0, -2} {
		report, err := sut.CheckStock(context.Background(), 1, quantity)
		require.NoError(t, err)
		assert.False(t, report.Available, "quantity %d", quantity)
	}
}

func TestCheckStock_UnknownProduct(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{}})

	_, err := sut.CheckStock(context.Background(), 1, 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestUpdateStock_InvalidOperation(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}})

	_, err := sut.UpdateStock(context.Background(), 1, 1, "increment")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestUpdateStock_NegativeQuantity(t *testing.T) {
	sut := newTestService(&mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}})

	_, err := sut.UpdateStock(context.Background(), 1, -1, domain.StockSet)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUpdateStock_Modes(t *testing.T) {
	repo := &mockRepository{products: map[int64]*domain.Product{
		1: {ID: 1, Stock: 5},
	}}
	sut := newTestService(repo)
	ctx := context.Background()

	product, err := sut.UpdateStock(ctx, 1, 3, domain.StockAdd)
	require.NoError(t, err)
	assert.Equal(t, 8, product.Stock)

	product, err = sut.UpdateStock(ctx, 1, 2, domain.StockRemove)
	require.NoError(t, err)
	assert.Equal(t, 6, product.Stock)

	_, err = sut.UpdateStock(ctx, 1, 7, domain.StockRemove)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	product, err = sut.UpdateStock(ctx, 1, 0, domain.StockSet)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
}

func TestProductsByCategory(t *testing.T) {
	sut := newTestService(&mockRepository{
		products: map[int64]*domain.Product{
			1: {ID: 1, CategoryID: 1},
			2: {ID: 2, CategoryID: 2},
		},
		categories: map[int64]*domain.Category{
			1: {ID: 1, Name: "Bolos"},
		},
	})

	category, products, err := sut.ProductsByCategory(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bolos", category.Name)
	assert.Len(t, products, 1)

	_, _, err = sut.ProductsByCategory(context.Background(), 9)
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
}
