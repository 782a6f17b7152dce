package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

const cartKeyPrefix = "cart:"

// RedisCartRepository keeps each cart as one JSON document under cart:<userId>.
type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.CartRepository = (*RedisCartRepository)(nil)

// NewRedisCartRepository stores carts with the given expiry; zero keeps them forever.
func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func cartKey(userID string) string {
	return cartKeyPrefix + userID
}

func (r *RedisCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", userID, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *RedisCartRepository) Save(ctx context.Context, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.UserID, err)
	}
	return r.client.Set(ctx, cartKey(cart.UserID), raw, r.ttl).Err()
}

func (r *RedisCartRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
