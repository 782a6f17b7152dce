package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/core/domain"
)

func orderInput(items ...domain.OrderItem) domain.CreateOrderInput {
	addr := domain.Address{Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"}
	return domain.CreateOrderInput{
		Items:           items,
		ShippingAddress: addr,
		BillingAddress:  addr,
		PaymentMethod:   domain.PaymentMethod{Type: domain.PaymentCreditCard, Last4: "4242"},
	}
}

func item(id, price string, qty int) domain.OrderItem {
	return domain.OrderItem{ProductID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestCreateOrder_Success(t *testing.T) {
	repo := newMockOrderRepo()
	pub := &mockPublisher{}
	svc := NewOrderService(repo, WithEventPublisher(pub))

	order, err := svc.CreateOrder(context.Background(), "user-1", orderInput(item("1", "2.50", 2), item("2", "1.25", 4)))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if !strings.HasPrefix(order.ID, "ord-") {
		t.Errorf("expected ord- prefix, got %s", order.ID)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("10")) {
		t.Errorf("expected total 10, got %s", order.TotalAmount)
	}
	if order.OrderDate.IsZero() || !order.CreatedAt.Equal(order.UpdatedAt) {
		t.Errorf("unexpected timestamps: %+v", order)
	}

	stored, _ := repo.Get(context.Background(), "user-1", order.ID)
	if stored == nil {
		t.Fatal("order was not stored")
	}

	if got := pub.types(); len(got) != 1 || got[0] != domain.OrderEventCreated {
		t.Errorf("expected one created event, got %v", got)
	}
}

func TestCreateOrder_ExactDecimalTotal(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	order, err := svc.CreateOrder(context.Background(), "user-1", orderInput(item("1", "0.10", 3), item("2", "0.20", 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TotalAmount.String() != "0.5" {
		t.Errorf("expected total 0.5, got %s", order.TotalAmount)
	}
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo)

	_, err := svc.CreateOrder(context.Background(), "user-1", orderInput())
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got: %v", err)
	}

	orders, _ := repo.ListByUser(context.Background(), "user-1")
	if len(orders) != 0 {
		t.Errorf("expected no stored orders, got %d", len(orders))
	}
}

func TestCreateOrder_InvalidItems(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	tests := []struct {
		name string
		item domain.OrderItem
	}{
		{"missing product", item("", "1.00", 1)},
		{"zero quantity", item("1", "1.00", 0)},
		{"zero price", item("1", "0", 1)},
		{"negative price", item("1", "-3", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), "user-1", orderInput(tt.item))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got: %v", err)
			}
			if ve.Message != "Invalid order data" || len(ve.Details) == 0 {
				t.Errorf("unexpected validation error: %+v", ve)
			}
		})
	}
}

func TestGetUserOrders_FilterAndPaging(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		status := domain.OrderStatusPending
		if i >= 15 {
			status = domain.OrderStatusShipped
		}
		repo.Create(ctx, domain.Order{
			ID:        fmt.Sprintf("ord-%02d", i),
			UserID:    "user-1",
			Status:    status,
			OrderDate: base.Add(time.Duration(i) * time.Hour),
		})
	}

	page, err := svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{Status: domain.OrderStatusPending}, domain.Pagination{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Orders) != 10 || page.Total != 15 || page.TotalPages != 2 {
		t.Errorf("expected 10 of 15 over 2 pages, got %d of %d over %d", len(page.Orders), page.Total, page.TotalPages)
	}

	page, _ = svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{Status: domain.OrderStatusPending}, domain.Pagination{Page: 2, Limit: 10})
	if len(page.Orders) != 5 {
		t.Errorf("expected 5 orders on page 2, got %d", len(page.Orders))
	}

	page, _ = svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{Status: domain.OrderStatusPending}, domain.Pagination{Page: 3, Limit: 10})
	if len(page.Orders) != 0 || page.Total != 15 {
		t.Errorf("expected empty page 3 with total 15, got %d of %d", len(page.Orders), page.Total)
	}

	start := base.Add(10 * time.Hour)
	end := base.Add(12 * time.Hour)
	page, _ = svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{StartDate: &start, EndDate: &end}, domain.Pagination{})
	if page.Total != 3 || page.Page != 1 || page.Limit != 10 {
		t.Errorf("expected 3 orders in date window with defaults, got total %d page %d limit %d", page.Total, page.Page, page.Limit)
	}
}

func TestGetUserOrders_HugePage(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewOrderService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Create(ctx, domain.Order{ID: fmt.Sprintf("ord-%d", i), UserID: "user-1", Status: domain.OrderStatusPending})
	}

	page, err := svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{}, domain.Pagination{Page: 4611686018427387904, Limit: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Orders) != 0 || page.Total != 5 || page.TotalPages != 2 {
		t.Errorf("expected empty page with total 5 over 2 pages, got %d of %d over %d", len(page.Orders), page.Total, page.TotalPages)
	}
}

func TestGetUserOrders_InvalidQuery(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())
	ctx := context.Background()

	if _, err := svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{}, domain.Pagination{Limit: 101}); !IsValidation(err) {
		t.Errorf("expected validation error for limit 101, got: %v", err)
	}
	if _, err := svc.GetUserOrders(ctx, "user-1", domain.OrderFilter{Status: "lost"}, domain.Pagination{}); !IsValidation(err) {
		t.Errorf("expected validation error for unknown status, got: %v", err)
	}
}

func TestGetOrderByID_OtherUser(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "user-1", orderInput(item("1", "1.00", 1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetOrderByID(ctx, "user-2", order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for another user's order")
	}
}

func TestUpdateOrderStatus_Lifecycle(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewOrderService(newMockOrderRepo(), WithEventPublisher(pub))
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, "user-1", orderInput(item("1", "1.00", 1)))

	tracking := "TRK-123"
	eta := time.Now().Add(48 * time.Hour)
	updated, err := svc.UpdateOrderStatus(ctx, "user-1", order.ID, domain.StatusUpdate{Status: domain.OrderStatusProcessing})
	if err != nil || updated == nil {
		t.Fatalf("pending -> processing failed: %v", err)
	}

	updated, err = svc.UpdateOrderStatus(ctx, "user-1", order.ID, domain.StatusUpdate{
		Status:            domain.OrderStatusShipped,
		TrackingNumber:    &tracking,
		EstimatedDelivery: &eta,
	})
	if err != nil {
		t.Fatalf("processing -> shipped failed: %v", err)
	}
	if updated.TrackingNumber != tracking || updated.EstimatedDelivery == nil {
		t.Errorf("tracking fields not applied: %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("updatedAt moved backwards")
	}

	_, err = svc.UpdateOrderStatus(ctx, "user-1", order.ID, domain.StatusUpdate{Status: domain.OrderStatusPending})
	if !IsValidation(err) {
		t.Errorf("expected shipped -> pending to be rejected, got: %v", err)
	}

	_, err = svc.CancelOrder(ctx, "user-1", order.ID)
	if !IsValidation(err) {
		t.Errorf("expected cancelling a shipped order to be rejected, got: %v", err)
	}

	got := pub.types()
	want := []domain.OrderEventType{domain.OrderEventCreated, domain.OrderEventStatusChanged, domain.OrderEventStatusChanged}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestUpdateOrderStatus_Permissive(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo(), WithPermissiveTransitions(true))
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, "user-1", orderInput(item("1", "1.00", 1)))
	svc.CancelOrder(ctx, "user-1", order.ID)

	updated, err := svc.UpdateOrderStatus(ctx, "user-1", order.ID, domain.StatusUpdate{Status: domain.OrderStatusDelivered})
	if err != nil {
		t.Fatalf("expected permissive update, got: %v", err)
	}
	if updated.Status != domain.OrderStatusDelivered {
		t.Errorf("expected delivered, got %s", updated.Status)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	_, err := svc.UpdateOrderStatus(context.Background(), "user-1", "ord-1", domain.StatusUpdate{Status: "lost"})
	if !IsValidation(err) {
		t.Errorf("expected validation error, got: %v", err)
	}
}

func TestUpdateOrderStatus_NotFound(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())

	order, err := svc.UpdateOrderStatus(context.Background(), "user-1", "missing", domain.StatusUpdate{Status: domain.OrderStatusShipped})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Error("expected nil for missing order")
	}
}

func TestCancelOrder(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewOrderService(newMockOrderRepo(), WithEventPublisher(pub))
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, "user-1", orderInput(item("1", "1.00", 1)))

	cancelled, err := svc.CancelOrder(ctx, "user-1", order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}

	if _, err := svc.CancelOrder(ctx, "user-1", order.ID); !IsValidation(err) {
		t.Errorf("expected second cancel to be rejected, got: %v", err)
	}

	missing, err := svc.CancelOrder(ctx, "user-1", "missing")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing order, got %v, %v", missing, err)
	}

	if got := pub.types(); len(got) != 2 || got[1] != domain.OrderEventCancelled {
		t.Errorf("expected created then cancelled events, got %v", got)
	}
}

func TestOrderService_RepositoryError(t *testing.T) {
	repo := newMockOrderRepo()
	repo.failGet = true
	svc := NewOrderService(repo)

	_, err := svc.GetOrderByID(context.Background(), "user-1", "ord-1")
	if !errors.Is(err, errRepoDown) {
		t.Errorf("expected wrapped repository error, got: %v", err)
	}
}

func TestOrderService_PublishFailureDoesNotFail(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	svc := NewOrderService(newMockOrderRepo(), WithEventPublisher(pub))

	if _, err := svc.CreateOrder(context.Background(), "user-1", orderInput(item("1", "1.00", 1))); err != nil {
		t.Errorf("expected order to be created despite publish failure, got: %v", err)
	}
}

func TestUpdateOrderStatus_Concurrent(t *testing.T) {
	svc := NewOrderService(newMockOrderRepo())
	ctx := context.Background()

	order, _ := svc.CreateOrder(ctx, "user-1", orderInput(item("1", "1.00", 1)))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CancelOrder(ctx, "user-1", order.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one cancel to win, got %d", successes)
	}
}
