package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Pauloph98/giocakes/internal/catalog/domain"
	"github.com/Pauloph98/giocakes/internal/catalog/repository"
	"github.com/Pauloph98/giocakes/internal/catalog/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogAPI is the surface the handlers need from the service layer.
type CatalogAPI interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error)
	CheckStock(ctx context.Context, id int64, quantity int) (*domain.StockReport, error)
	UpdateStock(ctx context.Context, id int64, quantity int, op domain.StockOperation) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ProductsByCategory(ctx context.Context, categoryID int64) (*domain.Category, []*domain.Product, error)
	Health(ctx context.Context) error
}

type CatalogHandler struct {
	service CatalogAPI
	logger  *zap.Logger
	timeout time.Duration
}

func NewCatalogHandler(service CatalogAPI, logger *zap.Logger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *CatalogHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}", h.GetCategory)
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/products/{id}/stock", h.CheckStock)
		r.Put("/products/{id}/stock", h.UpdateStock)
		r.Get("/products/category/{category_id}", h.ProductsByCategory)
	})

	return r
}

type UpdateStockRequestDTO struct {
	Quantity  *int   `json:"quantity"`
	Operation string `json:"operation"`
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter := domain.ProductFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input", "category_id must be an integer")
			return
		}
		filter.CategoryID = id
	}
	if v := r.URL.Query().Get("max_price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input", "max_price must be a number")
			return
		}
		filter.MaxPrice = price
	}
	if v := r.URL.Query().Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input", "in_stock must be a boolean")
			return
		}
		filter.InStockOnly = inStock
	}

	products, err := h.service.ListProducts(ctx, filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	if products == nil {
		products = []*domain.Product{}
	}
	respondData(w, http.StatusOK, products, len(products))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: product})
}

func (h *CatalogHandler) CheckStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	quantity := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_input", "quantity must be an integer")
			return
		}
		quantity = q
	}

	report, err := h.service.CheckStock(ctx, id, quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: report})
}

func (h *CatalogHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStockRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid JSON body")
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "quantity is required")
		return
	}

	op := domain.StockOperation(req.Operation)
	if req.Operation == "" {
		op = domain.StockSet
	}

	product, err := h.service.UpdateStock(ctx, id, *req.Quantity, op)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "stock updated",
		Data:    product,
	})
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.service.ListCategories(ctx)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	if categories == nil {
		categories = []*domain.Category{}
	}
	respondData(w, http.StatusOK, categories, len(categories))
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.service.GetCategory(ctx, id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: category})
}

func (h *CatalogHandler) ProductsByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categoryID, ok := parseID(w, r, "category_id")
	if !ok {
		return
	}

	category, products, err := h.service.ProductsByCategory(ctx, categoryID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Data: map[string]interface{}{
			"category": category,
			"products": products,
			"total":    len(products),
		},
	})
}

func (h *CatalogHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Health(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":    "unhealthy",
			"service":   "catalog",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "catalog",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_input", param+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *CatalogHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "not_found", "category not found")
	case errors.Is(err, repository.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, "insufficient_stock", "insufficient stock")
	case errors.Is(err, service.ErrInvalidOperation):
		respondError(w, http.StatusBadRequest, "invalid_input", "operation must be add, remove or set")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_input", "quantity must not be negative")
	default:
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
