package store

import (
	"context"
	"errors"
	"time"

	"github.com/Pauloph98/giocakes/internal/cart/domain"
)

// CartTTL is how long a stored cart survives without a mutation. Every Save
// re-applies the full window.
const CartTTL = 24 * time.Hour

var ErrCartNotFound = errors.New("cart not found")

// CartStore defines the interface for cart session storage.
// Consumers define this interface, not the Redis implementation.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
