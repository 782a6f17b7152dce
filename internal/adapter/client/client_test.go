package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/my-basket/internal/middleware"
)

func TestProductClient_GetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "trace-1", r.Header.Get(middleware.TraceHeader))

		switch r.URL.Path {
		case "/api/products/1":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": "1", "name": "Organic Apples", "price": 3.99, "inStock": true})
		case "/api/products/boom":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Internal server error"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Product not found"}`))
		}
	}))
	defer srv.Close()

	ctx := middleware.WithTraceID(context.Background(), "trace-1")
	c := NewProductClient(Config{BaseURL: srv.URL + "/"})

	p, err := c.GetProduct(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Organic Apples", p.Name)
	assert.Equal(t, "3.99", p.Price.String())

	p, err = c.GetProduct(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = c.GetProduct(ctx, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestProductClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewProductClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.GetProduct(context.Background(), "1")
	require.Error(t, err)
}

func TestCartClient_ClearCart(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/api/cart/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCartClient(Config{BaseURL: srv.URL})
	require.NoError(t, c.ClearCart(context.Background(), "u1"))
	require.Error(t, c.ClearCart(context.Background(), "down"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"DELETE /api/cart/u1", "DELETE /api/cart/down"}, paths)
}
