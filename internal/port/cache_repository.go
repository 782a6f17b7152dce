package port

import (
	"context"

	"github.com/rl1809/my-basket/internal/core/domain"
)

type CartRepository interface {
	// Get returns nil when the user has no cart yet
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// Save replaces the stored cart for cart.UserID
	Save(ctx context.Context, cart domain.Cart) error
}
