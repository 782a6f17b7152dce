package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/metrics"
)

// Hop-by-hop headers are meaningful only for a single connection and are
// not forwarded (RFC 9110 section 7.6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

type routeNotFound struct {
	Error             string   `json:"error"`
	Path              string   `json:"path"`
	AvailableServices []string `json:"availableServices"`
}

type upstreamUnavailable struct {
	Error   string `json:"error"`
	Service string `json:"service"`
	Message string `json:"message"`
}

// Router forwards each request to the first registered service whose prefix
// owns the path and relays the upstream response unchanged.
type Router struct {
	registry *Registry
	client   *http.Client
	timeout  time.Duration
	log      *logrus.Entry
	metrics  *metrics.Metrics
}

func NewRouter(registry *Registry, timeout time.Duration, log *logrus.Entry, m *metrics.Metrics) *Router {
	return &Router{
		registry: registry,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
				DisableCompression:  true,
			},
			// Redirects belong to the client, not the gateway.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc, ok := rt.registry.Match(r.URL.Path)
	if !ok {
		writeGatewayJSON(w, http.StatusNotFound, routeNotFound{
			Error:             "Route not found",
			Path:              r.URL.RequestURI(),
			AvailableServices: rt.registry.Prefixes(),
		})
		return
	}

	target := svc.URL + r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	rt.log.WithFields(logrus.Fields{
		"service": svc.Name,
		"path":    r.URL.Path,
		"target":  target,
	}).Info("proxying request")

	ctx, cancel := context.WithTimeout(r.Context(), rt.timeout)
	defer cancel()

	start := time.Now()
	resp, err := rt.forward(ctx, r, target)
	if err != nil {
		rt.fail(w, svc, err, time.Since(start))
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		rt.log.WithError(err).WithField("service", svc.Name).Warn("upstream response interrupted")
	}
	rt.recordProxy(svc.Name, resp.StatusCode, time.Since(start))
}

func (rt *Router) forward(ctx context.Context, r *http.Request, target string) (*http.Response, error) {
	body := r.Body
	if r.ContentLength == 0 {
		body = http.NoBody
	}
	out, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}
	out.ContentLength = r.ContentLength

	copyHeaders(out.Header, r.Header)
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		if prior := r.Header.Get("X-Forwarded-For"); prior != "" {
			ip = prior + ", " + ip
		}
		out.Header.Set("X-Forwarded-For", ip)
	}
	if r.Host != "" {
		out.Header.Set("X-Forwarded-Host", r.Host)
	}

	return rt.client.Do(out)
}

func (rt *Router) fail(w http.ResponseWriter, svc ServiceConfig, err error, elapsed time.Duration) {
	message := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("%s did not respond within %s", svc.Name, rt.timeout)
	}

	rt.log.WithError(err).WithField("service", svc.Name).Error("proxy error")
	if rt.metrics != nil {
		rt.metrics.RecordUpstreamFailure(svc.Name)
	}
	rt.recordProxy(svc.Name, http.StatusServiceUnavailable, elapsed)

	writeGatewayJSON(w, http.StatusServiceUnavailable, upstreamUnavailable{
		Error:   "Service temporarily unavailable",
		Service: svc.Name,
		Message: message,
	})
}

func (rt *Router) recordProxy(service string, status int, elapsed time.Duration) {
	if rt.metrics != nil {
		rt.metrics.RecordProxy(service, status, elapsed)
	}
}

// copyHeaders replaces dst's values with src's, skipping hop-by-hop headers
// and any header src names in its Connection field.
func copyHeaders(dst, src http.Header) {
	skip := make(map[string]struct{}, len(hopHeaders))
	for _, h := range hopHeaders {
		skip[h] = struct{}{}
	}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				skip[http.CanonicalHeaderKey(name)] = struct{}{}
			}
		}
	}

	for name, values := range src {
		if _, ok := skip[name]; ok {
			continue
		}
		dst.Del(name)
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}
