package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

type OrderService struct {
	repo       port.OrderRepository
	events     port.OrderEventPublisher
	log        *logrus.Entry
	permissive bool
	locks      *keyedMutex
	now        func() time.Time
}

type OrderOption func(*OrderService)

func WithEventPublisher(p port.OrderEventPublisher) OrderOption {
	return func(s *OrderService) { s.events = p }
}

func WithOrderLogger(log *logrus.Entry) OrderOption {
	return func(s *OrderService) { s.log = log }
}

// WithPermissiveTransitions accepts any status change, skipping the lifecycle table.
func WithPermissiveTransitions(enabled bool) OrderOption {
	return func(s *OrderService) { s.permissive = enabled }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(repo port.OrderRepository, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repo:  repo,
		log:   logrus.NewEntry(logrus.StandardLogger()),
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, userID string, in domain.CreateOrderInput) (domain.Order, error) {
	if err := validateOrderInput(userID, in); err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderItem, len(in.Items))
	copy(items, in.Items)

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	now := s.now()
	order := domain.Order{
		ID:              fmt.Sprintf("ord-%d-%s", now.UnixNano(), uuid.NewString()[:8]),
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		Status:          domain.OrderStatusPending,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  in.BillingAddress,
		PaymentMethod:   in.PaymentMethod,
		OrderDate:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, domain.OrderEventCreated, order, "")
	return order, nil
}

func validateOrderInput(userID string, in domain.CreateOrderInput) error {
	var details []FieldError
	if strings.TrimSpace(userID) == "" {
		details = append(details, FieldError{Field: "userId", Message: "is required"})
	}
	if len(in.Items) == 0 {
		details = append(details, FieldError{Field: "items", Message: "must contain at least one item"})
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			details = append(details, FieldError{Field: fmt.Sprintf("items[%d].productId", i), Message: "is required"})
		}
		if item.Quantity < 1 {
			details = append(details, FieldError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be at least 1"})
		}
		if !item.Price.GreaterThan(decimal.Zero) {
			details = append(details, FieldError{Field: fmt.Sprintf("items[%d].price", i), Message: "must be positive"})
		}
	}
	if len(details) > 0 {
		return NewValidationError("Invalid order data", details...)
	}
	return nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string, filter domain.OrderFilter, page domain.Pagination) (domain.OrderPage, error) {
	if err := validatePagination(page); err != nil {
		return domain.OrderPage{}, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.OrderPage{}, NewValidationError("Invalid query parameters",
			FieldError{Field: "status", Message: fmt.Sprintf("unknown order status %q", filter.Status)})
	}
	page = page.Normalize()

	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("list orders: %w", err)
	}

	filtered := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if filter.Matches(o) {
			filtered = append(filtered, o)
		}
	}

	orders, totalPages := domain.Paginate(filtered, page)
	return domain.OrderPage{
		Orders:     orders,
		Total:      len(filtered),
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetOrderByID returns nil when the user has no such order.
func (s *OrderService) GetOrderByID(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

// UpdateOrderStatus moves the order along its lifecycle and records the
// optional delivery fields. Returns nil when the order does not exist.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, userID, orderID string, upd domain.StatusUpdate) (*domain.Order, error) {
	if !upd.Status.Valid() {
		return nil, NewValidationError("Invalid update data",
			FieldError{Field: "status", Message: fmt.Sprintf("unknown order status %q", upd.Status)})
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.repo.Get(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, nil
	}

	previous := order.Status
	if err := s.checkTransition(previous, upd.Status); err != nil {
		return nil, err
	}

	order.Status = upd.Status
	if upd.TrackingNumber != nil {
		order.TrackingNumber = *upd.TrackingNumber
	}
	if upd.EstimatedDelivery != nil {
		t := *upd.EstimatedDelivery
		order.EstimatedDelivery = &t
	}
	if upd.ActualDelivery != nil {
		t := *upd.ActualDelivery
		order.ActualDelivery = &t
	}
	order.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *order); err != nil {
		return nil, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.publish(ctx, domain.OrderEventStatusChanged, *order, previous)
	return order, nil
}

// CancelOrder returns nil when the order does not exist.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.repo.Get(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, nil
	}

	previous := order.Status
	if err := s.checkTransition(previous, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, *order); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	s.publish(ctx, domain.OrderEventCancelled, *order, previous)
	return order, nil
}

func (s *OrderService) checkTransition(from, to domain.OrderStatus) error {
	if s.permissive || from.CanTransitionTo(to) {
		return nil
	}
	return NewValidationError(fmt.Sprintf("cannot change order status from %s to %s", from, to),
		FieldError{Field: "status", Message: "transition not allowed"})
}

func (s *OrderService) publish(ctx context.Context, typ domain.OrderEventType, order domain.Order, previous domain.OrderStatus) {
	if s.events == nil {
		return
	}
	event := domain.OrderEvent{
		Type:       typ,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Previous:   previous,
		Total:      order.TotalAmount,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id": order.ID,
			"event":    typ,
		}).Warn("failed to publish order event")
	}
}
