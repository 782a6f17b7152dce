package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/core/service"
)

type ProductHandler struct {
	products *service.ProductService
	log      *logrus.Entry
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Description string          `json:"description" validate:"required"`
	Image       string          `json:"image" validate:"required,url"`
	DataAIHint  string          `json:"dataAiHint" validate:"required"`
	Category    string          `json:"category"`
	InStock     *bool           `json:"inStock"`
}

type updateProductRequest struct {
	Name        *string          `json:"name" validate:"omitnil,min=1"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,gt=0"`
	Description *string          `json:"description" validate:"omitnil,min=1"`
	Image       *string          `json:"image" validate:"omitnil,url"`
	DataAIHint  *string          `json:"dataAiHint" validate:"omitnil,min=1"`
	Category    *string          `json:"category"`
	InStock     *bool            `json:"inStock"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func NewProductHandler(products *service.ProductService, log *logrus.Entry) *ProductHandler {
	return &ProductHandler{products: products, log: log}
}

func (h *ProductHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/products/health", HealthCheck("product-service")).Methods(http.MethodGet)
	r.HandleFunc("/api/products", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/products", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/api/products/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/products/{id}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/categories", h.Categories).Methods(http.MethodGet)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r)
	filter := domain.ProductFilter{
		Category: q.values.Get("category"),
		MinPrice: q.decimal("minPrice"),
		MaxPrice: q.decimal("maxPrice"),
		InStock:  q.boolean("inStock"),
		Search:   q.values.Get("search"),
	}
	page := q.pagination()
	if err := q.err(); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	result, err := h.products.ListProducts(r.Context(), filter, page)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeBody(r, &req, "Invalid product data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), domain.ProductInput{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		DataAIHint:  req.DataAIHint,
		Category:    req.Category,
		InStock:     req.InStock,
	})
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}

	h.log.WithField("product_id", product.ID).Info("product created")
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeBody(r, &req, "Invalid product data"); err != nil {
		respondError(w, h.log, r, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), mux.Vars(r)["id"], domain.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Image:       req.Image,
		DataAIHint:  req.DataAIHint,
		Category:    req.Category,
		InStock:     req.InStock,
	})
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := h.products.DeleteProduct(r.Context(), id)
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.log.WithField("product_id", id).Info("product deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		respondError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}
