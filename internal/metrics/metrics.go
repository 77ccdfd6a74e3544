// Package metrics exposes Prometheus collectors for lookups and their upstream calls.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Pipeline outcomes, labelled by error kind or "ok"
	ResolutionTotal    *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec

	// Upstream calls (PLC directory, did:web, handle resolution, AppView)
	UpstreamRequestTotal    *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics returns the process-wide Metrics, registering collectors with
// the default registry on first use
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		ResolutionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookup_resolutions_total",
			Help: "Total number of identity resolutions by outcome",
		}, []string{"outcome"}),

		ResolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lookup_resolution_duration_seconds",
			Help:    "Identity resolution duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),

		UpstreamRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookup_upstream_requests_total",
			Help: "Total number of upstream requests",
		}, []string{"upstream", "outcome"}),

		UpstreamRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lookup_upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"upstream", "outcome"}),
	}

	m.HTTPRequestTotal = registerOrGet(m.HTTPRequestTotal).(*prometheus.CounterVec)
	m.HTTPRequestDuration = registerOrGet(m.HTTPRequestDuration).(*prometheus.HistogramVec)
	m.ResolutionTotal = registerOrGet(m.ResolutionTotal).(*prometheus.CounterVec)
	m.ResolutionDuration = registerOrGet(m.ResolutionDuration).(*prometheus.HistogramVec)
	m.UpstreamRequestTotal = registerOrGet(m.UpstreamRequestTotal).(*prometheus.CounterVec)
	m.UpstreamRequestDuration = registerOrGet(m.UpstreamRequestDuration).(*prometheus.HistogramVec)

	globalMetrics = m
	return m
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

// ObserveResolution records a pipeline outcome
func (m *Metrics) ObserveResolution(outcome string, elapsed time.Duration) {
	m.ResolutionTotal.WithLabelValues(outcome).Inc()
	m.ResolutionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveUpstream records an upstream call
func (m *Metrics) ObserveUpstream(upstream, outcome string, elapsed time.Duration) {
	m.UpstreamRequestTotal.WithLabelValues(upstream, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(upstream, outcome).Observe(elapsed.Seconds())
}

// ObserveHTTPRequest records a served HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	m.HTTPRequestTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}
