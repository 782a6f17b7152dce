package port

import (
	"context"

	"github.com/rl1809/my-basket/internal/core/domain"
)

// ProductCatalog resolves product ids for the cart. Returns nil when unknown.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

type OrderEventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}
