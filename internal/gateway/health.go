package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/my-basket/internal/metrics"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type HealthResult struct {
	Service      string `json:"service"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
	Error        string `json:"error,omitempty"`
}

type HealthSnapshot struct {
	Gateway   string         `json:"gateway"`
	Status    string         `json:"status"`
	Services  []HealthResult `json:"services"`
	Timestamp time.Time      `json:"timestamp"`
}

func (s HealthSnapshot) Healthy() bool {
	return s.Status == StatusHealthy
}

// HealthAggregator probes every registered service concurrently and rolls
// the answers up into one gateway status.
type HealthAggregator struct {
	registry *Registry
	gateway  string
	timeout  time.Duration
	client   *http.Client
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewHealthAggregator(registry *Registry, gateway string, timeout time.Duration, m *metrics.Metrics) *HealthAggregator {
	return &HealthAggregator{
		registry: registry,
		gateway:  gateway,
		timeout:  timeout,
		client:   &http.Client{},
		metrics:  m,
		now:      time.Now,
	}
}

// targets drops services that share name, url and health path with an
// earlier registration, keeping the first position. A service mounted under
// two prefixes is therefore reported once, not once per route.
func (a *HealthAggregator) targets() []ServiceConfig {
	type key struct{ name, url, health string }

	seen := make(map[key]struct{})
	var out []ServiceConfig
	for _, s := range a.registry.Services() {
		k := key{s.Name, s.URL, s.HealthCheck}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Check never fails: each probe's error is recorded in its own result.
func (a *HealthAggregator) Check(ctx context.Context) HealthSnapshot {
	targets := a.targets()
	results := make([]HealthResult, len(targets))

	var g errgroup.Group
	for i, svc := range targets {
		i, svc := i, svc
		g.Go(func() error {
			results[i] = a.probe(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	for _, r := range results {
		if a.metrics != nil {
			a.metrics.SetServiceUp(r.Service, r.Status == StatusHealthy)
		}
		if r.Status != StatusHealthy {
			status = StatusUnhealthy
		}
	}

	return HealthSnapshot{
		Gateway:   a.gateway,
		Status:    status,
		Services:  results,
		Timestamp: a.now().UTC(),
	}
}

func (a *HealthAggregator) probe(ctx context.Context, svc ServiceConfig) HealthResult {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	result := HealthResult{Service: svc.Name, Status: StatusUnhealthy}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL+svc.HealthCheck, nil)
	if err != nil {
		result.Error = err.Error()
		result.ResponseTime = time.Since(start).Milliseconds()
		return result
	}

	resp, err := a.client.Do(req)
	if err != nil {
		result.Error = err.Error()
		result.ResponseTime = time.Since(start).Milliseconds()
		return result
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	result.ResponseTime = time.Since(start).Milliseconds()
	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return result
	}
	result.Status = StatusHealthy
	return result
}
