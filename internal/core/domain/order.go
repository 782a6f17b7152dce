package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
	OrderStatusRefunded:   nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Staying in a non-terminal state is allowed so tracking fields can be updated.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return !s.Terminal()
	}
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

type PaymentType string

const (
	PaymentCreditCard PaymentType = "credit_card"
	PaymentDebitCard  PaymentType = "debit_card"
	PaymentPayPal     PaymentType = "paypal"
	PaymentApplePay   PaymentType = "apple_pay"
	PaymentGooglePay  PaymentType = "google_pay"
)

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type PaymentMethod struct {
	Type  PaymentType `json:"type"`
	Last4 string      `json:"last4,omitempty"`
	Brand string      `json:"brand,omitempty"`
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	DataAIHint  string          `json:"dataAiHint"`
	Quantity    int             `json:"quantity"`
}

// LineTotal is price × quantity for the line.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Items             []OrderItem     `json:"items"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Status            OrderStatus     `json:"status"`
	ShippingAddress   Address         `json:"shippingAddress"`
	BillingAddress    Address         `json:"billingAddress"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	OrderDate         time.Time       `json:"orderDate"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actualDelivery,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type CreateOrderInput struct {
	Items           []OrderItem
	ShippingAddress Address
	BillingAddress  Address
	PaymentMethod   PaymentMethod
}

type StatusUpdate struct {
	Status            OrderStatus
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
}

type OrderFilter struct {
	Status    OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
}

// Matches applies every set filter as a logical AND.
func (f OrderFilter) Matches(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.StartDate != nil && o.OrderDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && o.OrderDate.After(*f.EndDate) {
		return false
	}
	return true
}

type OrderPage struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
	OrderEventCancelled     OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type       OrderEventType  `json:"type"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Status     OrderStatus     `json:"status"`
	Previous   OrderStatus     `json:"previousStatus,omitempty"`
	Total      decimal.Decimal `json:"totalAmount"`
	OccurredAt time.Time       `json:"occurredAt"`
}
