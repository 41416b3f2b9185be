package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// httpBuckets covers 1ms to 10s of request latency.
var httpBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// HTTPMetrics contains all Prometheus metrics related to the HTTP surface.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	registry        *prometheus.Registry
}

// NewHTTPMetrics creates a new instance of HTTPMetrics and registers it on
// the given registry.
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP metrics: %w", err)
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register HTTP metrics: %w", err)
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() error {
	m.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csengo_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csengo_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: httpBuckets,
	}, []string{"method", "path"})

	return nil
}

// RecordRequest records one HTTP request. The path is normalized to keep
// metric cardinality bounded.
func (m *HTTPMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	p := NormalizePath(path)
	m.RequestsTotal.WithLabelValues(method, p, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, p).Observe(duration.Seconds())
}

// NormalizePath collapses parameterized HTTP paths to avoid high cardinality.
func NormalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/htmx/task/") && len(path) > len("/htmx/task/"):
		return "/htmx/task/:id"
	case strings.HasPrefix(path, "/htmx/file/") && len(path) > len("/htmx/file/"):
		return "/htmx/file/:fname"
	case strings.HasPrefix(path, "/api/file/") && len(path) > len("/api/file/"):
		return "/api/file/:fname"
	case strings.HasPrefix(path, "/static/"):
		return "/static/*path"
	default:
		return path
	}
}

// Collect implements the prometheus.Collector interface.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.RequestsTotal.Collect(ch)
	m.RequestDuration.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.RequestsTotal.Describe(ch)
	m.RequestDuration.Describe(ch)
}
