package storage

import (
	"context"
	"strings"
	"sync"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

// MemoryStore is an insertion-ordered map safe for concurrent use. Values are
// copied on the way in and out so callers never share mutable state with it.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	keys  []string
	rows  map[string]V
	clone func(V) V
}

func NewMemoryStore[V any](clone func(V) V) *MemoryStore[V] {
	if clone == nil {
		clone = func(v V) V { return v }
	}
	return &MemoryStore[V]{
		rows:  make(map[string]V),
		clone: clone,
	}
}

func (m *MemoryStore[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.rows[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.clone(v), true
}

// Put inserts or replaces; a replaced key keeps its original position.
func (m *MemoryStore[V]) Put(key string, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.rows[key] = m.clone(v)
}

func (m *MemoryStore[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[key]; !ok {
		return false
	}
	delete(m.rows, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// List returns values whose key has the given prefix, in insertion order.
func (m *MemoryStore[V]) List(prefix string) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, m.clone(m.rows[k]))
		}
	}
	return out
}

func (m *MemoryStore[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

type MemoryProductRepository struct {
	store *MemoryStore[domain.Product]
}

var _ port.ProductRepository = (*MemoryProductRepository)(nil)

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{store: NewMemoryStore[domain.Product](nil)}
}

func (r *MemoryProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.store.List(""), nil
}

func (r *MemoryProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := r.store.Get(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryProductRepository) Put(ctx context.Context, product domain.Product) error {
	r.store.Put(product.ID, product)
	return nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.store.Delete(id), nil
}

type MemoryCartRepository struct {
	store *MemoryStore[domain.Cart]
}

var _ port.CartRepository = (*MemoryCartRepository)(nil)

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{store: NewMemoryStore(domain.Cart.Clone)}
}

func (r *MemoryCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	c, ok := r.store.Get(userID)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryCartRepository) Save(ctx context.Context, cart domain.Cart) error {
	r.store.Put(cart.UserID, cart)
	return nil
}

type MemoryOrderRepository struct {
	store *MemoryStore[domain.Order]
}

var _ port.OrderRepository = (*MemoryOrderRepository)(nil)

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{store: NewMemoryStore(cloneOrder)}
}

func orderKey(userID, orderID string) string {
	return userID + "\x00" + orderID
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		o.EstimatedDelivery = &t
	}
	if o.ActualDelivery != nil {
		t := *o.ActualDelivery
		o.ActualDelivery = &t
	}
	return o
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order domain.Order) error {
	r.store.Put(orderKey(order.UserID, order.ID), order)
	return nil
}

func (r *MemoryOrderRepository) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, ok := r.store.Get(orderKey(userID, orderID))
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *MemoryOrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.store.List(userID + "\x00"), nil
}

func (r *MemoryOrderRepository) Update(ctx context.Context, order domain.Order) error {
	r.store.Put(orderKey(order.UserID, order.ID), order)
	return nil
}
