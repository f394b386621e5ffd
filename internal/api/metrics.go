package api

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec
	RateLimitHits    prometheus.Counter
	CacheLookups     *prometheus.CounterVec
	registry         *prometheus.Registry
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics creates and registers all metrics (singleton pattern for tests)
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		registry := prometheus.NewRegistry()

		m := &Metrics{
			RequestCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "veridical_requests_total",
					Help: "Total number of analysis requests by outcome",
				},
				[]string{"outcome"},
			),
			LatencyHistogram: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "veridical_request_duration_seconds",
					Help:    "Analysis request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"outcome"},
			),
			RateLimitHits: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "veridical_rate_limit_hits_total",
					Help: "Total number of rate limited requests",
				},
			),
			CacheLookups: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "veridical_cache_lookups_total",
					Help: "Result cache lookups by result",
				},
				[]string{"result"},
			),
			registry: registry,
		}

		registry.MustRegister(m.RequestCounter)
		registry.MustRegister(m.LatencyHistogram)
		registry.MustRegister(m.RateLimitHits)
		registry.MustRegister(m.CacheLookups)

		metricsInstance = m
	})

	return metricsInstance
}

// Handler returns the Prometheus scrape handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
