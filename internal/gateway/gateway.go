// Package gateway fronts the storefront services: it proxies by path prefix,
// aggregates their health and describes the registry.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/my-basket/internal/metrics"
)

type Options struct {
	Name          string
	Version       string
	Registry      *Registry
	ProxyTimeout  time.Duration
	HealthTimeout time.Duration
	Log           *logrus.Entry
	Metrics       *metrics.Metrics
}

type Gateway struct {
	name     string
	version  string
	registry *Registry
	router   *Router
	health   *HealthAggregator
	metrics  *metrics.Metrics
	now      func() time.Time
}

type serviceInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type infoResponse struct {
	Gateway   string        `json:"gateway"`
	Version   string        `json:"version"`
	Services  []serviceInfo `json:"services"`
	Timestamp time.Time     `json:"timestamp"`
}

func New(opts Options) *Gateway {
	if opts.ProxyTimeout == 0 {
		opts.ProxyTimeout = 30 * time.Second
	}
	if opts.HealthTimeout == 0 {
		opts.HealthTimeout = 5 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Gateway{
		name:     opts.Name,
		version:  opts.Version,
		registry: opts.Registry,
		router:   NewRouter(opts.Registry, opts.ProxyTimeout, opts.Log, opts.Metrics),
		health:   NewHealthAggregator(opts.Registry, opts.Name, opts.HealthTimeout, opts.Metrics),
		metrics:  opts.Metrics,
		now:      time.Now,
	}
}

// Register mounts the gateway's own endpoints; every other path is proxied.
func (g *Gateway) Register(r *mux.Router) {
	r.HandleFunc("/health", g.Health).Methods(http.MethodGet)
	r.HandleFunc("/info", g.Info).Methods(http.MethodGet)
	if g.metrics != nil {
		r.Handle("/metrics", g.metrics.Handler()).Methods(http.MethodGet)
	}
	r.PathPrefix("/").Handler(g.router)
}

func (g *Gateway) Health(w http.ResponseWriter, r *http.Request) {
	snapshot := g.health.Check(r.Context())
	status := http.StatusOK
	if !snapshot.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeGatewayJSON(w, status, snapshot)
}

func (g *Gateway) Info(w http.ResponseWriter, r *http.Request) {
	services := g.registry.Services()
	info := make([]serviceInfo, 0, len(services))
	for _, s := range services {
		info = append(info, serviceInfo{Name: s.Name, Path: s.Path})
	}

	writeGatewayJSON(w, http.StatusOK, infoResponse{
		Gateway:   g.name,
		Version:   g.version,
		Services:  info,
		Timestamp: g.now().UTC(),
	})
}

// writeGatewayJSON is the gateway's own copy of the handler package encoder;
// the gateway does not import the service handlers.
func writeGatewayJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
