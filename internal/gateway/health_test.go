package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/my-basket/internal/metrics"
)

func healthyServer(hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestHealth_RollupWithOneDown(t *testing.T) {
	products := healthyServer(nil)
	defer products.Close()
	carts := healthyServer(nil)
	defer carts.Close()
	orders := healthyServer(nil)
	defer orders.Close()
	ai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ai.Close()

	reg, err := NewRegistry([]ServiceConfig{
		{Name: "product-service", URL: products.URL, Path: "/api/products"},
		{Name: "cart-service", URL: carts.URL, Path: "/api/cart"},
		{Name: "order-service", URL: orders.URL, Path: "/api/orders"},
		{Name: "ai-service", URL: ai.URL, Path: "/api/recommendations"},
	})
	require.NoError(t, err)

	snap := NewHealthAggregator(reg, "api-gateway", time.Second, metrics.New("gateway-test")).Check(context.Background())

	assert.Equal(t, "api-gateway", snap.Gateway)
	assert.Equal(t, StatusUnhealthy, snap.Status)
	require.Len(t, snap.Services, 4)
	for i, name := range []string{"product-service", "cart-service", "order-service"} {
		assert.Equal(t, name, snap.Services[i].Service)
		assert.Equal(t, StatusHealthy, snap.Services[i].Status)
		assert.Empty(t, snap.Services[i].Error)
	}
	assert.Equal(t, "ai-service", snap.Services[3].Service)
	assert.Equal(t, StatusUnhealthy, snap.Services[3].Status)
	assert.Contains(t, snap.Services[3].Error, "500")
}

func TestHealth_DedupesSharedProbe(t *testing.T) {
	var hits atomic.Int32
	products := healthyServer(&hits)
	defer products.Close()

	reg, err := NewRegistry([]ServiceConfig{
		{Name: "product-service", URL: products.URL, Path: "/api/products", HealthCheck: "/api/products/health"},
		{Name: "product-service", URL: products.URL, Path: "/api/categories", HealthCheck: "/api/products/health"},
	})
	require.NoError(t, err)

	snap := NewHealthAggregator(reg, "api-gateway", time.Second, nil).Check(context.Background())

	assert.True(t, snap.Healthy())
	assert.Len(t, snap.Services, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHealth_SlowServiceDoesNotBlockOthers(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)
	fast := healthyServer(nil)
	defer fast.Close()

	reg, err := NewRegistry([]ServiceConfig{
		{Name: "order-service", URL: slow.URL, Path: "/api/orders"},
		{Name: "cart-service", URL: fast.URL, Path: "/api/cart"},
	})
	require.NoError(t, err)

	start := time.Now()
	snap := NewHealthAggregator(reg, "api-gateway", 100*time.Millisecond, nil).Check(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StatusUnhealthy, snap.Status)
	assert.Equal(t, StatusUnhealthy, snap.Services[0].Status)
	assert.NotEmpty(t, snap.Services[0].Error)
	assert.GreaterOrEqual(t, snap.Services[0].ResponseTime, int64(100))
	assert.Equal(t, StatusHealthy, snap.Services[1].Status)
}

func TestHealth_UnreachableService(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	reg, err := NewRegistry([]ServiceConfig{{Name: "cart-service", URL: url, Path: "/api/cart"}})
	require.NoError(t, err)

	snap := NewHealthAggregator(reg, "api-gateway", time.Second, nil).Check(context.Background())
	require.Len(t, snap.Services, 1)
	assert.Equal(t, StatusUnhealthy, snap.Services[0].Status)
	assert.NotEmpty(t, snap.Services[0].Error)
}
