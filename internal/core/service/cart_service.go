package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

// CartService owns one cart per user. Mutations for the same user are
// serialized so concurrent writes do not overwrite each other.
type CartService struct {
	repo    port.CartRepository
	catalog port.ProductCatalog
	locks   *keyedMutex
	now     func() time.Time
}

func NewCartService(repo port.CartRepository, catalog port.ProductCatalog) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.loadOrCreate(ctx, userID)
}

func (s *CartService) loadOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("get cart: %w", err)
	}
	if cart != nil {
		if cart.Items == nil {
			cart.Items = []domain.CartItem{}
		}
		return *cart, nil
	}

	now := s.now()
	fresh := domain.Cart{
		ID:          uuid.NewString(),
		UserID:      userID,
		Items:       []domain.CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Save(ctx, fresh); err != nil {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return fresh, nil
}

func (s *CartService) AddToCart(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, NewValidationError("Invalid request data", FieldError{Field: "quantity", Message: "must be at least 1"})
	}
	if quantity > domain.MaxLineQuantity {
		return domain.Cart{}, lineQuantityError()
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("resolve product %s: %w", productID, err)
	}
	if product == nil {
		return domain.Cart{}, ErrProductNotFound
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	now := s.now()
	if idx := cart.IndexOf(productID); idx >= 0 {
		if cart.Items[idx].Quantity+quantity > domain.MaxLineQuantity {
			return domain.Cart{}, lineQuantityError()
		}
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, domain.NewCartItem(*product, quantity, now))
	}

	return s.save(ctx, cart, now)
}

// UpdateCartItem overwrites the quantity of a line; zero removes it.
func (s *CartService) UpdateCartItem(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 0 {
		return domain.Cart{}, NewValidationError("Invalid request data", FieldError{Field: "quantity", Message: "must not be negative"})
	}
	if quantity > domain.MaxLineQuantity {
		return domain.Cart{}, lineQuantityError()
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := cart.IndexOf(productID)
	if idx < 0 {
		return domain.Cart{}, ErrItemNotFound
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}

	return s.save(ctx, cart, s.now())
}

// RemoveFromCart drops a line; an absent product leaves the cart unchanged.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID string) (domain.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := cart.IndexOf(productID)
	if idx < 0 {
		return cart, nil
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	return s.save(ctx, cart, s.now())
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (domain.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items = []domain.CartItem{}

	return s.save(ctx, cart, s.now())
}

func (s *CartService) GetCartSummary(ctx context.Context, userID string) (domain.CartSummary, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return domain.CartSummary{
		TotalItems:  cart.TotalItems,
		TotalAmount: cart.TotalAmount,
		ItemCount:   len(cart.Items),
	}, nil
}

func (s *CartService) save(ctx context.Context, cart domain.Cart, now time.Time) (domain.Cart, error) {
	cart.Recalculate()
	cart.UpdatedAt = now
	if err := s.repo.Save(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

func lineQuantityError() error {
	return NewValidationError("Invalid request data",
		FieldError{Field: "quantity", Message: fmt.Sprintf("line quantity must be at most %d", domain.MaxLineQuantity)})
}
