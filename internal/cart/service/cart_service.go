package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pauloph98/giocakes/internal/cart/catalog"
	"github.com/Pauloph98/giocakes/internal/cart/domain"
	"github.com/Pauloph98/giocakes/internal/cart/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// CatalogGateway is what the mutation protocol needs from the catalog side.
// Consumers define this interface, not the HTTP client.
type CatalogGateway interface {
	CheckStock(ctx context.Context, productID int64, quantity int) (bool, error)
	GetProduct(ctx context.Context, productID int64) (*catalog.Product, error)
	Health(ctx context.Context) error
}

type CartService struct {
	store   store.CartStore
	catalog CatalogGateway
	logger  *zap.Logger
}

func NewCartService(store store.CartStore, catalog CatalogGateway, logger *zap.Logger) *CartService {
	return &CartService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// Session is the result of CreateSession.
type Session struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CartView is a cart enriched with live catalog data. Lines whose product can
// no longer be resolved are dropped from the view but stay in stored state.
type CartView struct {
	SessionID  string         `json:"session_id"`
	Items      []CartViewItem `json:"items"`
	TotalItems int            `json:"total_items"`
	Total      float64        `json:"total"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type CartViewItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
	Product   catalog.Product `json:"product"`
	Subtotal  float64         `json:"subtotal"`
}

func (s *CartService) CreateSession(ctx context.Context) (*Session, error) {
	cart := &domain.Cart{
		SessionID: uuid.NewString(),
		Items:     []domain.CartItem{},
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created", zap.String("session_id", cart.SessionID))
	return &Session{
		SessionID: cart.SessionID,
		ExpiresAt: time.Now().UTC().Add(store.CartTTL),
	}, nil
}

// GetCart never fails on an unknown session: an absent or expired cart reads
// as a fresh empty one. The total uses live prices, not prices frozen at
// add time.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		SessionID: sessionID,
		Items:     []CartViewItem{},
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}

	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			// Unresolvable lines are dropped from the view only; the stored
			// line survives until an explicit removal.
			s.logger.Debug("dropping unresolved cart line",
				zap.String("session_id", sessionID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err),
			)
			continue
		}

		subtotal := product.Price * float64(item.Quantity)
		view.Items = append(view.Items, CartViewItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			Product:   *product,
			Subtotal:  subtotal,
		})
		view.Total += subtotal
	}

	view.TotalItems = len(view.Items)
	return view, nil
}

// AddItem validates requested stock, merges into an existing line when the
// product is already in the cart (re-validating the merged quantity, not the
// delta) and persists the result. A rejection leaves stored state untouched.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	available, err := s.catalog.CheckStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrInsufficientStock
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindItem(productID); idx >= 0 {
		merged := cart.Items[idx].Quantity + quantity
		available, err := s.catalog.CheckStock(ctx, productID, merged)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, ErrInsufficientStock
		}
		cart.Items[idx].Quantity = merged
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// UpdateQuantity overwrites a line's quantity after validating the absolute
// amount against stock. A product not in the cart is ErrItemNotFound.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	available, err := s.catalog.CheckStock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrInsufficientStock
	}

	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	cart.Items[idx].Quantity = quantity

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem drops the line if present. Removal is idempotent: a missing line
// is not an error, and the cart is persisted either way (refreshing its TTL).
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*domain.Cart, error) {
	cart, err := s.loadCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindItem(productID); idx >= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Health reports the cart store and the catalog dependency separately so the
// caller can distinguish degraded from down.
func (s *CartService) Health(ctx context.Context) (storeOK, catalogOK bool) {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("cart store unreachable", zap.Error(err))
	} else {
		storeOK = true
	}

	if err := s.catalog.Health(ctx); err != nil {
		s.logger.Warn("catalog unreachable", zap.Error(err))
	} else {
		catalogOK = true
	}
	return storeOK, catalogOK
}

func (s *CartService) loadCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, store.ErrCartNotFound) {
		now := time.Now().UTC()
		return &domain.Cart{
			SessionID: sessionID,
			Items:     []domain.CartItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}
