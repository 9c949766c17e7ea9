package streamclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
)

func testConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.RetryWaitMin = 5 * time.Millisecond
	cfg.RetryWaitMax = 20 * time.Millisecond
	return cfg
}

func writeSSE(w http.ResponseWriter, events ...[2]string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, ev := range events {
		fmt.Fprintf(w, "event:%s\ndata:%s\n\n", ev[0], ev[1])
		w.(http.Flusher).Flush()
	}
}

func TestStreamRetriesConnectionThenReadsEvents(t *testing.T) {
	var attempts atomic.Int32
	var received apimodels.BacktestRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, streamPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&received)
		writeSSE(w,
			[2]string{"start", `{"run_id":"r1","total":2}`},
			[2]string{"result", `{"instrument_id":1,"symbol":"BTC","cached":false}`},
			[2]string{"error", `{"instrument_id":2,"symbol":"ETH","code":"insufficient_data"}`},
			[2]string{"complete", `{"run_id":"r1","succeeded":1,"failed":1}`},
		)
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL), nil)
	var kinds []string
	err := client.Stream(context.Background(), apimodels.BacktestRequest{StrategyID: "rsi"}, func(ev ClientEvent) error {
		kinds = append(kinds, ev.Kind)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, "rsi", received.StrategyID)
	assert.Equal(t, []string{"start", "result", "error", "complete"}, kinds)
}

func TestStreamReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"unknown_strategy","message":"unknown strategy \"x\""}}`))
	}))
	defer srv.Close()

	err := New(testConfig(srv.URL), nil).Stream(context.Background(), apimodels.BacktestRequest{StrategyID: "x"}, func(ClientEvent) error { return nil })

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "unknown_strategy", apiErr.Code)
}

func TestStreamStopsWhenCallbackFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w, [2]string{"start", `{}`}, [2]string{"result", `{}`}, [2]string{"complete", `{}`})
	}))
	defer srv.Close()

	stop := errors.New("stop")
	seen := 0
	err := New(testConfig(srv.URL), nil).Stream(context.Background(), apimodels.BacktestRequest{StrategyID: "rsi"}, func(ClientEvent) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestReadEvents(t *testing.T) {
	body := strings.Join([]string{
		": keep-alive",
		"",
		"event: progress",
		`data: {"completed":1,`,
		`data: "total":2}`,
		"",
		"data: plain",
		"",
	}, "\n")

	var events []ClientEvent
	require.NoError(t, ReadEvents(strings.NewReader(body), func(ev ClientEvent) error {
		events = append(events, ev)
		return nil
	}))

	require.Len(t, events, 2)
	assert.Equal(t, "progress", events[0].Kind)
	var progress struct{ Completed, Total int }
	require.NoError(t, events[0].Decode(&progress))
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, "message", events[1].Kind)
}
