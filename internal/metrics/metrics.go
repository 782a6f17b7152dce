package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "my_basket"

// Metrics owns one Prometheus registry per process.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	proxyRequests    *prometheus.CounterVec
	proxyDuration    *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
	serviceUp        *prometheus.GaugeVec

	cartOperations  *prometheus.CounterVec
	orderOperations *prometheus.CounterVec
}

func New(service string) *Metrics {
	constLabels := prometheus.Labels{"app": service}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "inflight_requests",
			Help:        "Current number of in-flight HTTP requests.",
			ConstLabels: constLabels,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests handled.",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 10),
			ConstLabels: constLabels,
		}, []string{"method", "path"}),

		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "proxied_requests_total",
			Help:        "Requests forwarded to a backend service.",
			ConstLabels: constLabels,
		}, []string{"service", "status"}),
		proxyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "upstream_duration_seconds",
			Help:        "Round trip time of forwarded requests.",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 14),
			ConstLabels: constLabels,
		}, []string{"service"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "upstream_failures_total",
			Help:        "Forwarded requests that failed at the transport layer.",
			ConstLabels: constLabels,
		}, []string{"service"}),
		serviceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "service_up",
			Help:        "1 if the last health probe of the service succeeded.",
			ConstLabels: constLabels,
		}, []string{"service"}),

		cartOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cart",
			Name:        "operations_total",
			Help:        "Cart mutations by operation and outcome.",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),
		orderOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "order",
			Name:        "operations_total",
			Help:        "Order operations by operation and outcome.",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.proxyRequests,
		m.proxyDuration,
		m.upstreamFailures,
		m.serviceUp,
		m.cartOperations,
		m.orderOperations,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementInFlight() { m.httpInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.httpInFlight.Dec() }

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordProxy(service string, status int, duration time.Duration) {
	m.proxyRequests.WithLabelValues(service, strconv.Itoa(status)).Inc()
	m.proxyDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *Metrics) RecordUpstreamFailure(service string) {
	m.upstreamFailures.WithLabelValues(service).Inc()
}

func (m *Metrics) SetServiceUp(service string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.serviceUp.WithLabelValues(service).Set(v)
}

func (m *Metrics) RecordCartOperation(operation string, err error) {
	m.cartOperations.WithLabelValues(operation, result(err)).Inc()
}

func (m *Metrics) RecordOrderOperation(operation string, err error) {
	m.orderOperations.WithLabelValues(operation, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
