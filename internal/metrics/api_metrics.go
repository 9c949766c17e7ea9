package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// API metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency; streaming routes measure the whole stream",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	ActiveStreams = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_streams",
		Help:      "Open event streams by transport",
	}, []string{"transport"})
	StreamEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_events_total",
		Help:      "Events written to clients by transport and kind",
	}, []string{"transport", "kind"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Batch start requests rejected by the rate limiter",
	})
	WarmupJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "warmup_jobs_total",
		Help:      "Scheduled cache warm-up runs by job and status",
	}, []string{"job", "status"})
)

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// StreamOpened increments the open stream gauge.
func StreamOpened(transport string) {
	ActiveStreams.WithLabelValues(transport).Inc()
}

// StreamClosed decrements the open stream gauge.
func StreamClosed(transport string) {
	ActiveStreams.WithLabelValues(transport).Dec()
}

// RecordStreamEvent records an event delivered to a client.
func RecordStreamEvent(transport, kind string) {
	StreamEventsTotal.WithLabelValues(transport, kind).Inc()
}

// RecordRateLimited records a rejected request.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

// RecordWarmupJob records a scheduled warm-up run.
func RecordWarmupJob(job, status string) {
	WarmupJobsTotal.WithLabelValues(job, status).Inc()
}
