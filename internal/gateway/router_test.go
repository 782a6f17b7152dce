package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/my-basket/internal/metrics"
	"github.com/rl1809/my-basket/pkg/logger"
)

func newTestRouter(t *testing.T, timeout time.Duration, services ...ServiceConfig) *Router {
	t.Helper()
	reg, err := NewRegistry(services)
	require.NoError(t, err)
	return NewRouter(reg, timeout, logger.New(logger.Options{Output: io.Discard}), metrics.New("gateway-test"))
}

func TestRouter_RelaysVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/u1/items", r.URL.Path)
		assert.Equal(t, "a=1&b=two", r.URL.RawQuery)
		assert.Equal(t, `{"productId":"1"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Keep-Alive"))
		assert.Empty(t, r.Header.Get("X-Secret-Hop"))
		assert.NotEmpty(t, r.Header.Get("X-Forwarded-For"))

		w.Header().Set("X-Upstream", "cart")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer upstream.Close()

	rt := newTestRouter(t, time.Second, ServiceConfig{Name: "cart-service", URL: upstream.URL, Path: "/api/cart"})

	req := httptest.NewRequest(http.MethodPost, "/api/cart/u1/items?a=1&b=two", strings.NewReader(`{"productId":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Connection", "X-Secret-Hop")
	req.Header.Set("X-Secret-Hop", "1")
	req.Header.Set("Keep-Alive", "timeout=5")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "cart", rec.Header().Get("X-Upstream"))
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestRouter_DoesNotFollowRedirects(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/products/elsewhere", http.StatusFound)
	}))
	defer upstream.Close()

	rt := newTestRouter(t, time.Second, ServiceConfig{Name: "product-service", URL: upstream.URL, Path: "/api/products"})
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/products/elsewhere", rec.Header().Get("Location"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	rt := newTestRouter(t, time.Second,
		ServiceConfig{Name: "product-service", URL: "http://p", Path: "/api/products"},
		ServiceConfig{Name: "cart-service", URL: "http://c", Path: "/api/cart"},
	)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown?x=1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body routeNotFound
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Route not found", body.Error)
	assert.Equal(t, "/api/unknown?x=1", body.Path)
	assert.Equal(t, []string{"/api/products", "/api/cart"}, body.AvailableServices)
}

func TestRouter_UpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	rt := newTestRouter(t, time.Second, ServiceConfig{Name: "order-service", URL: url, Path: "/api/orders"})
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/u1", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body upstreamUnavailable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Service temporarily unavailable", body.Error)
	assert.Equal(t, "order-service", body.Service)
	assert.NotEmpty(t, body.Message)
}

func TestRouter_Timeout(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer upstream.Close()
	defer close(release)

	rt := newTestRouter(t, 50*time.Millisecond, ServiceConfig{Name: "ai-service", URL: upstream.URL, Path: "/api/recommendations"})

	start := time.Now()
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations/personalized", strings.NewReader("{}")))

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body upstreamUnavailable
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ai-service", body.Service)
	assert.Contains(t, body.Message, "did not respond within")
}
