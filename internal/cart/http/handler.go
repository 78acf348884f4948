package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Pauloph98/giocakes/internal/cart/catalog"
	"github.com/Pauloph98/giocakes/internal/cart/domain"
	"github.com/Pauloph98/giocakes/internal/cart/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartAPI is the surface the handlers need from the service layer.
type CartAPI interface {
	CreateSession(ctx context.Context) (*service.Session, error)
	GetCart(ctx context.Context, sessionID string) (*service.CartView, error)
	AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
	Health(ctx context.Context) (storeOK, catalogOK bool)
}

type CartHandler struct {
	service CartAPI
	logger  *zap.Logger
	timeout time.Duration
}

func NewCartHandler(service CartAPI, logger *zap.Logger, timeout time.Duration) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
		timeout: timeout,
	}
}

func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.HealthCheck)
	r.Route("/api/cart", func(r chi.Router) {
		r.Post("/session", h.CreateSession)
		r.Route("/{session_id}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{product_id}", h.UpdateQuantity)
			r.Delete("/items/{product_id}", h.RemoveItem)
		})
	})

	return r
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.service.CreateSession(ctx)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, apiResponse{Success: true, Data: session})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetCart(ctx, sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{Success: true, Data: view})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_input", "product_id must be positive")
		return
	}

	cart, err := h.service.AddItem(ctx, sessionID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "item added to cart",
		Data:    cart,
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_input", "invalid JSON body")
		return
	}

	cart, err := h.service.UpdateQuantity(ctx, sessionID, productID, req.Quantity)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "quantity updated",
		Data:    cart,
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.service.RemoveItem(ctx, sessionID, productID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "item removed from cart",
		Data:    cart,
	})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(ctx, sessionID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: "cart cleared",
	})
}

// HealthCheck reports degraded (still 200) when the catalog dependency is
// unreachable but the local store answers, and 503 only when the store fails.
func (h *CartHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	storeOK, catalogOK := h.service.Health(ctx)

	body := map[string]string{
		"service":   "cart",
		"redis":     boolStatus(storeOK),
		"catalog":   boolStatus(catalogOK),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	switch {
	case storeOK && catalogOK:
		body["status"] = "healthy"
		respondJSON(w, http.StatusOK, body)
	case storeOK:
		body["status"] = "degraded"
		respondJSON(w, http.StatusOK, body)
	default:
		body["status"] = "unhealthy"
		respondJSON(w, http.StatusServiceUnavailable, body)
	}
}

func boolStatus(ok bool) string {
	if ok {
		return "connected"
	}
	return "disconnected"
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_input", "session_id is required")
		return "", false
	}
	return sessionID, true
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_input", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

func (h *CartHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_input", "quantity must be greater than 0")
	case errors.Is(err, service.ErrInsufficientStock):
		respondError(w, http.StatusBadRequest, "insufficient_stock", "product unavailable or insufficient stock")
	case errors.Is(err, service.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, catalog.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "dependency_unavailable", "stock validation unavailable, try again later")
	default:
		h.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
