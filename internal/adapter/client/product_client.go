package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rl1809/my-basket/internal/core/domain"
	"github.com/rl1809/my-basket/internal/port"
)

// ProductClient resolves products through the product service.
type ProductClient struct {
	base
}

var _ port.ProductCatalog = (*ProductClient)(nil)

func NewProductClient(cfg Config) *ProductClient {
	return &ProductClient{base: newBase(cfg)}
}

// GetProduct returns nil when the product service answers 404.
func (c *ProductClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(resp)
	}

	var product domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("unmarshal product: %w", err)
	}
	return &product, nil
}
