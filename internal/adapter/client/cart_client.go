package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rl1809/my-basket/internal/port"
)

// CartClient lets the order service empty a cart after checkout.
type CartClient struct {
	base
}

var _ port.CartClearer = (*CartClient)(nil)

func NewCartClient(cfg Config) *CartClient {
	return &CartClient{base: newBase(cfg)}
}

func (c *CartClient) ClearCart(ctx context.Context, userID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(userID))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return nil
}
