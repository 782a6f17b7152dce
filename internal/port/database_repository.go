package port

import (
	"context"

	"github.com/rl1809/my-basket/internal/core/domain"
)

type ProductRepository interface {
	// List returns every product in insertion order
	List(ctx context.Context) ([]domain.Product, error)

	// Get returns nil when the product does not exist
	Get(ctx context.Context, id string) (*domain.Product, error)

	Put(ctx context.Context, product domain.Product) error

	// Delete reports whether a product was removed
	Delete(ctx context.Context, id string) (bool, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error

	// Get returns nil when the user has no such order
	Get(ctx context.Context, userID, orderID string) (*domain.Order, error)

	// ListByUser returns the user's orders in creation order
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	Update(ctx context.Context, order domain.Order) error
}
