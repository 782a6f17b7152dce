package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/internal/port"
)

type OrderHandler struct {
	orders  *service.OrderService
	carts   port.CartClearer
	log     *logrus.Entry
	metrics *metrics.Metrics
}

type addressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

func (a addressRequest) toDomain() domain.Address {
	return domain.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country}
}

type paymentMethodRequest struct {
	Type  string `json:"type" validate:"required,oneof=credit_card debit_card paypal apple_pay google_pay"`
	Last4 string `json:"last4"`
	Brand string `json:"brand"`
}

// orderItemRequest accepts the storefront's cart lines, which carry the
// product id as "id".
type orderItemRequest struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId" validate:"required"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	DataAIHint  string          `json:"dataAiHint"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

type createOrderRequest struct {
	Items           []orderItemRequest   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress addressRequest       `json:"shippingAddress"`
	BillingAddress  addressRequest       `json:"billingAddress"`
	PaymentMethod   paymentMethodRequest `json:"paymentMethod"`
}

type updateStatusRequest struct {
	Status            string     `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	TrackingNumber    *string    `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	ActualDelivery    *time.Time `json:"actualDelivery"`
}

// NewOrderHandler wires the order routes. carts and m may be nil; without a
// cart clearer the clearCart query flag is ignored.
func NewOrderHandler(orders *service.OrderService, carts port.CartClearer, log *logrus.Entry, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{orders: orders, carts: carts, log: log, metrics: m}
}

func (h *OrderHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/orders/health", HealthCheck("order-service")).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{userId}", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/orders/{userId}", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{userId}/{orderId}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{userId}/{orderId}/status", h.UpdateStatus).Methods(http.MethodPut)
	r.HandleFunc("/api/orders/{userId}/{orderId}/cancel", h.Cancel).Methods(http.MethodPost)
}

func (h *OrderHandler) record(operation string, err error) {
	if h.metrics != nil {
		h.metrics.RecordOrderOperation(operation, err)
	}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeOrder(r, &req); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	userID := mux.Vars(r)["userId"]
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID:   it.ProductID,
			Name:        it.Name,
			Price:       it.Price,
			Description: it.Description,
			Image:       it.Image,
			DataAIHint:  it.DataAIHint,
			Quantity:    it.Quantity,
		})
	}

	order, err := h.orders.CreateOrder(r.Context(), userID, domain.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress.toDomain(),
		BillingAddress:  req.BillingAddress.toDomain(),
		PaymentMethod: domain.PaymentMethod{
			Type:  domain.PaymentType(req.PaymentMethod.Type),
			Last4: req.PaymentMethod.Last4,
			Brand: req.PaymentMethod.Brand,
		},
	})
	h.record("create", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.TotalAmount.String(),
	}).Info("order created")

	if clear, _ := strconv.ParseBool(r.URL.Query().Get("clearCart")); clear && h.carts != nil {
		if err := h.carts.ClearCart(r.Context(), userID); err != nil {
			h.log.WithError(err).WithField("user_id", userID).Warn("failed to clear cart after order")
		}
	}

	writeJSON(w, http.StatusCreated, order)
}

// decodeOrder folds the storefront's "id" item field into productId before validating.
func decodeOrder(r *http.Request, req *createOrderRequest) error {
	if err := decodeJSON(r, req, "Invalid order data"); err != nil {
		return err
	}
	for i := range req.Items {
		if req.Items[i].ProductID == "" {
			req.Items[i].ProductID = req.Items[i].ID
		}
	}
	return validateStruct(req, "Invalid order data")
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	filter := domain.OrderFilter{
		Status:    domain.OrderStatus(q.values.Get("status")),
		StartDate: q.date("startDate", false),
		EndDate:   q.date("endDate", true),
	}
	page := q.pagination()
	if err := q.err(); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	result, err := h.orders.GetUserOrders(r.Context(), mux.Vars(r)["userId"], filter, page)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	order, err := h.orders.GetOrderByID(r.Context(), vars["userId"], vars["orderId"])
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req, "Invalid update data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	vars := mux.Vars(r)
	order, err := h.orders.UpdateOrderStatus(r.Context(), vars["userId"], vars["orderId"], domain.StatusUpdate{
		Status:            domain.OrderStatus(req.Status),
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
		ActualDelivery:    req.ActualDelivery,
	})
	h.record("update_status", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	order, err := h.orders.CancelOrder(r.Context(), vars["userId"], vars["orderId"])
	h.record("cancel", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}
