package gateway

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServiceConfig maps a path prefix to the service that owns it.
type ServiceConfig struct {
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Path        string `yaml:"path" json:"path"`
	HealthCheck string `yaml:"healthCheck" json:"healthCheck"`
}

type servicesFile struct {
	Services []ServiceConfig `yaml:"services"`
}

// urlOverrides lets deployments repoint a service without editing the file.
var urlOverrides = map[string]string{
	"product-service": "PRODUCT_SERVICE_URL",
	"cart-service":    "CART_SERVICE_URL",
	"order-service":   "ORDER_SERVICE_URL",
	"ai-service":      "AI_SERVICE_URL",
}

// DefaultServices is the registry used when no services file exists.
func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{Name: "product-service", URL: "http://localhost:3001", Path: "/api/products", HealthCheck: "/api/products/health"},
		{Name: "product-service", URL: "http://localhost:3001", Path: "/api/categories", HealthCheck: "/api/products/health"},
		{Name: "cart-service", URL: "http://localhost:3002", Path: "/api/cart", HealthCheck: "/api/cart/health"},
		{Name: "order-service", URL: "http://localhost:3003", Path: "/api/orders", HealthCheck: "/api/orders/health"},
		{Name: "ai-service", URL: "http://localhost:3004", Path: "/api/recommendations", HealthCheck: "/api/recommendations/health"},
		{Name: "ai-service", URL: "http://localhost:3004", Path: "/api/grocery-suggestions", HealthCheck: "/api/recommendations/health"},
	}
}

// Registry is the ordered, read-only list of routed services. Order decides
// which prefix wins when several match.
type Registry struct {
	services []ServiceConfig
}

func NewRegistry(services []ServiceConfig) (*Registry, error) {
	if len(services) == 0 {
		return nil, errors.New("registry: no services configured")
	}

	out := make([]ServiceConfig, 0, len(services))
	for i, s := range services {
		s.Name = strings.TrimSpace(s.Name)
		s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")
		s.Path = strings.TrimRight(strings.TrimSpace(s.Path), "/")

		switch {
		case s.Name == "":
			return nil, fmt.Errorf("registry: service %d: name is required", i)
		case s.URL == "":
			return nil, fmt.Errorf("registry: service %s: url is required", s.Name)
		case !strings.HasPrefix(s.Path, "/"):
			return nil, fmt.Errorf("registry: service %s: path must start with /", s.Name)
		}
		if s.HealthCheck == "" {
			s.HealthCheck = s.Path + "/health"
		}
		out = append(out, s)
	}
	return &Registry{services: out}, nil
}

// LoadRegistry reads the services file at path, falling back to
// DefaultServices when it does not exist, then applies *_SERVICE_URL overrides.
func LoadRegistry(path string) (*Registry, error) {
	return loadRegistry(path, os.Getenv)
}

func loadRegistry(path string, getenv func(string) string) (*Registry, error) {
	services, err := readServicesFile(path)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = DefaultServices()
	}

	for i := range services {
		if key, ok := urlOverrides[services[i].Name]; ok {
			if v := getenv(key); v != "" {
				services[i].URL = v
			}
		}
	}
	return NewRegistry(services)
}

func readServicesFile(path string) ([]ServiceConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read services config: %w", err)
	}

	var f servicesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse services config: %w", err)
	}
	return f.Services, nil
}

// Services returns a copy in registration order.
func (r *Registry) Services() []ServiceConfig {
	out := make([]ServiceConfig, len(r.services))
	copy(out, r.services)
	return out
}

// Match returns the first service whose prefix owns path. A prefix owns the
// path itself and anything below it, but not siblings sharing its spelling
// (/api/cart does not own /api/cartography).
func (r *Registry) Match(path string) (ServiceConfig, bool) {
	for _, s := range r.services {
		if path == s.Path || strings.HasPrefix(path, s.Path+"/") {
			return s, true
		}
	}
	return ServiceConfig{}, false
}

func (r *Registry) Prefixes() []string {
	out := make([]string, 0, len(r.services))
	for _, s := range r.services {
		out = append(out, s.Path)
	}
	return out
}
