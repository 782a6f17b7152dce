package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/service"
	"github.com/rl1809/my-basket/internal/metrics"
)

type CartHandler struct {
	carts   *service.CartService
	log     *logrus.Entry
	metrics *metrics.Metrics
}

type addToCartRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitnil,gt=0,lte=10000"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=10000"`
}

// NewCartHandler wires the cart routes; m may be nil.
func NewCartHandler(carts *service.CartService, log *logrus.Entry, m *metrics.Metrics) *CartHandler {
	return &CartHandler{carts: carts, log: log, metrics: m}
}

func (h *CartHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/cart/health", HealthCheck("cart-service")).Methods(http.MethodGet)
	r.HandleFunc("/api/cart/{userId}", h.GetCart).Methods(http.MethodGet)
	r.HandleFunc("/api/cart/{userId}", h.ClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/{userId}/items", h.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/api/cart/{userId}/items/{productId}", h.UpdateItem).Methods(http.MethodPut)
	r.HandleFunc("/api/cart/{userId}/items/{productId}", h.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/api/cart/{userId}/summary", h.Summary).Methods(http.MethodGet)
}

func (h *CartHandler) record(operation string, err error) {
	if h.metrics != nil {
		h.metrics.RecordCartOperation(operation, err)
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeBody(r, &req, "Invalid request data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.carts.AddToCart(r.Context(), mux.Vars(r)["userId"], req.ProductID, quantity)
	h.record("add", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeBody(r, &req, "Invalid request data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	vars := mux.Vars(r)
	cart, err := h.carts.UpdateCartItem(r.Context(), vars["userId"], vars["productId"], *req.Quantity)
	h.record("update", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	cart, err := h.carts.RemoveFromCart(r.Context(), vars["userId"], vars["productId"])
	h.record("remove", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.ClearCart(r.Context(), mux.Vars(r)["userId"])
	h.record("clear", err)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.carts.GetCartSummary(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
