// Package metrics provides centralized Prometheus metrics registry for the backtest service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cryptodash"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Cache counter metrics
var (
	CacheRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Result cache lookups by outcome (hit, miss, error)",
	}, []string{"outcome"})
	CacheWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_writes_total",
		Help:      "Result cache writes by status",
	}, []string{"status"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		// Register cache metrics
		registry.MustRegister(CacheRequestsTotal)
		registry.MustRegister(CacheWritesTotal)

		// Register batch metrics
		registry.MustRegister(BatchRunsTotal)
		registry.MustRegister(ActiveBatches)
		registry.MustRegister(BatchDuration)
		registry.MustRegister(InstrumentEvaluationsTotal)
		registry.MustRegister(EvaluationDuration)

		// Register API metrics
		registry.MustRegister(HTTPRequestsTotal)
		registry.MustRegister(HTTPRequestDuration)
		registry.MustRegister(ActiveStreams)
		registry.MustRegister(StreamEventsTotal)
		registry.MustRegister(RateLimitedTotal)

		// Register scheduler metrics
		registry.MustRegister(WarmupJobsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordCacheLookup records a cache lookup; outcome is hit, miss or error.
func RecordCacheLookup(outcome string) {
	CacheRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheWrite records a cache write.
func RecordCacheWrite(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	CacheWritesTotal.WithLabelValues(status).Inc()
}
