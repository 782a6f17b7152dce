package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

type ProductService struct {
	repo  port.ProductRepository
	locks *keyedMutex
	now   func() time.Time
}

func NewProductService(repo port.ProductRepository) *ProductService {
	return &ProductService{
		repo:  repo,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
}

// Seed stores the given products as-is, keeping their ids.
func (s *ProductService) Seed(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if err := s.repo.Put(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.Pagination) (domain.ProductPage, error) {
	if err := validatePagination(page); err != nil {
		return domain.ProductPage{}, err
	}
	page = page.Normalize()

	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	filtered := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if matchesProduct(p, filter) {
			filtered = append(filtered, p)
		}
	}

	products, totalPages := domain.Paginate(filtered, page)
	return domain.ProductPage{
		Products:   products,
		Total:      len(filtered),
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}, nil
}

func matchesProduct(p domain.Product, f domain.ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.DataAIHint), term) {
			return false
		}
	}
	return true
}

// GetProduct returns nil when the id is unknown. It also satisfies port.ProductCatalog.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if err := validateProductInput(in); err != nil {
		return domain.Product{}, err
	}

	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	now := s.now()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Image:       in.Image,
		DataAIHint:  in.DataAIHint,
		Category:    in.Category,
		InStock:     inStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Put(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func validateProductInput(in domain.ProductInput) error {
	var details []FieldError
	if strings.TrimSpace(in.Name) == "" {
		details = append(details, FieldError{Field: "name", Message: "is required"})
	}
	if !in.Price.GreaterThan(decimal.Zero) {
		details = append(details, FieldError{Field: "price", Message: "must be positive"})
	}
	if len(details) > 0 {
		return NewValidationError("Invalid product data", details...)
	}
	return nil
}

// UpdateProduct applies a partial update and returns nil when the id is unknown.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, NewValidationError("Invalid product data", FieldError{Field: "name", Message: "is required"})
	}
	if patch.Price != nil && !patch.Price.GreaterThan(decimal.Zero) {
		return nil, NewValidationError("Invalid product data", FieldError{Field: "price", Message: "must be positive"})
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if p == nil {
		return nil, nil
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.DataAIHint != nil {
		p.DataAIHint = *patch.DataAIHint
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Put(ctx, *p); err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product %s: %w", id, err)
	}
	return deleted, nil
}

// Categories lists distinct non-empty categories in first-seen order.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range all {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories, nil
}
