package metrics

import "github.com/prometheus/client_golang/prometheus"

// Batch counter vectors
var (
	BatchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Total number of batch runs by strategy and status",
	}, []string{"strategy_id", "status"})
	InstrumentEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "instrument_evaluations_total",
		Help:      "Per-instrument evaluations by strategy and outcome",
	}, []string{"strategy_id", "outcome"})
)

// Batch gauges
var (
	ActiveBatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_batches",
		Help:      "Number of batch runs currently in progress",
	})
)

// Batch histograms
var (
	BatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of batch runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"strategy_id"})
	EvaluationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of a single instrument evaluation including data fetch",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy_id"})
)

// RecordBatchStarted marks a batch as running.
func RecordBatchStarted() {
	ActiveBatches.Inc()
}

// RecordBatchFinished records a finished batch.
// status should be one of: "completed", "cancelled"
func RecordBatchFinished(strategyID, status string, durationSeconds float64) {
	ActiveBatches.Dec()
	BatchRunsTotal.WithLabelValues(strategyID, status).Inc()
	BatchDuration.WithLabelValues(strategyID).Observe(durationSeconds)
}

// RecordBatchRejected records a batch refused before start.
func RecordBatchRejected(strategyID, code string) {
	BatchRunsTotal.WithLabelValues(strategyID, "rejected_"+code).Inc()
}

// RecordInstrumentEvaluation records one instrument outcome.
// outcome is "computed", "cached" or an error code.
func RecordInstrumentEvaluation(strategyID, outcome string, durationSeconds float64) {
	InstrumentEvaluationsTotal.WithLabelValues(strategyID, outcome).Inc()
	if outcome == "computed" {
		EvaluationDuration.WithLabelValues(strategyID).Observe(durationSeconds)
	}
}
