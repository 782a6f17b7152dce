package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/my-basket/internal/core/domain"
)

var errRepoDown = errors.New("repository unavailable")

// Mock ProductRepository
type mockProductRepo struct {
	mu       sync.Mutex
	order    []string
	products map[string]domain.Product
}

func newMockProductRepo(products ...domain.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.Put(context.Background(), p)
	}
	return m
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out, nil
}

func (m *mockProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProductRepo) Put(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return false, nil
	}
	delete(m.products, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Mock CartRepository
type mockCartRepo struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	saves int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]domain.Cart)}
}

func (m *mockCartRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	c = c.Clone()
	return &c, nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.carts[cart.UserID] = cart.Clone()
	m.saves++
	return nil
}

// Mock OrderRepository
type mockOrderRepo struct {
	mu      sync.Mutex
	orders  map[string][]domain.Order
	failGet bool
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string][]domain.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.UserID] = append(m.orders[order.UserID], order)
	return nil
}

func (m *mockOrderRepo) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failGet {
		return nil, errRepoDown
	}
	for _, o := range m.orders[userID] {
		if o.ID == orderID {
			return &o, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Order, len(m.orders[userID]))
	copy(out, m.orders[userID])
	return out, nil
}

func (m *mockOrderRepo) Update(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range m.orders[order.UserID] {
		if o.ID == order.ID {
			m.orders[order.UserID][i] = order
			return nil
		}
	}
	return errors.New("order not found")
}

// Mock OrderEventPublisher
type mockPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) types() []domain.OrderEventType {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.OrderEventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
