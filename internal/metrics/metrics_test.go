package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordCacheLookup(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("hit"))

	RecordCacheLookup("hit")
	RecordCacheLookup("miss")

	assert.Equal(t, before+1, testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("hit")))
}

func TestBatchLifecycle(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		status string
	}{
		{name: "completed batch", status: "completed"},
		{name: "cancelled batch", status: "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active := testutil.ToFloat64(ActiveBatches)
			runs := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("rsi", tt.status))

			RecordBatchStarted()
			assert.Equal(t, active+1, testutil.ToFloat64(ActiveBatches))

			RecordBatchFinished("rsi", tt.status, 0.5)
			assert.Equal(t, active, testutil.ToFloat64(ActiveBatches))
			assert.Equal(t, runs+1, testutil.ToFloat64(BatchRunsTotal.WithLabelValues("rsi", tt.status)))
		})
	}
}

func TestRecordInstrumentEvaluation(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordInstrumentEvaluation("bollinger_bands", "computed", 0.01)
		RecordInstrumentEvaluation("bollinger_bands", "cached", 0)
		RecordInstrumentEvaluation("bollinger_bands", "insufficient_data", 0)
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(InstrumentEvaluationsTotal.WithLabelValues("bollinger_bands", "insufficient_data")))
}

func TestAPIMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordHTTPRequest("GET", "/api/v1/strategies", 200, 0.002)
		StreamOpened("sse")
		RecordStreamEvent("sse", "result")
		StreamClosed("sse")
		RecordRateLimited()
		RecordWarmupJob("nightly-rsi", "success")
		RecordBatchRejected("rsi", "invalid_parameters")
		RecordCacheWrite(false)
	})
	assert.Equal(t, 0.0, testutil.ToFloat64(ActiveStreams.WithLabelValues("sse")))
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordCacheLookup("miss")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cryptodash_cache_requests_total")
}

func BenchmarkRecordCacheLookup(b *testing.B) {
	InitRegistry()
	for i := 0; i < b.N; i++ {
		RecordCacheLookup("hit")
	}
}
