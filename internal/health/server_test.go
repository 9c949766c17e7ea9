package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	healthy   = pingerFunc(func(context.Context) error { return nil })
	unhealthy = pingerFunc(func(context.Context) error { return errors.New("connection refused") })
)

func ready(t *testing.T, s *Server) (int, ReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadyChecks(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		checks     []Check
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			ready:      true,
			checks:     []Check{{Name: "database", Pinger: healthy, Critical: true}, {Name: "cache", Pinger: healthy}},
			wantStatus: http.StatusOK,
			wantState:  "ok",
			wantChecks: map[string]string{"service": "ok", "database": "ok", "cache": "ok"},
		},
		{
			name:       "database down",
			ready:      true,
			checks:     []Check{{Name: "database", Pinger: unhealthy, Critical: true}, {Name: "cache", Pinger: healthy}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantChecks: map[string]string{"service": "ok", "database": "error: connection refused", "cache": "ok"},
		},
		{
			name:       "cache down degrades only",
			ready:      true,
			checks:     []Check{{Name: "database", Pinger: healthy, Critical: true}, {Name: "cache", Pinger: unhealthy}},
			wantStatus: http.StatusOK,
			wantState:  "degraded",
			wantChecks: map[string]string{"service": "ok", "database": "ok", "cache": "degraded: connection refused"},
		},
		{
			name:       "not marked ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
			wantChecks: map[string]string{"service": "not_ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{ServiceName: "cryptodash-backtest", Checks: tt.checks})
			s.SetReady(tt.ready)

			status, body := ready(t, s)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantState, body.Status)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestReadyPingsDependenciesConcurrently(t *testing.T) {
	slow := pingerFunc(func(ctx context.Context) error {
		select {
		case <-time.After(200 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	s := NewServer(Config{Checks: []Check{
		{Name: "database", Pinger: slow, Critical: true},
		{Name: "cache", Pinger: slow},
	}})
	s.SetReady(true)

	started := time.Now()
	status, body := ready(t, s)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body.Checks["cache"])
	assert.Less(t, time.Since(started), 380*time.Millisecond)
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "cryptodash-backtest", Version: "1.2.0"})

	for _, path := range []string{"/health", "/live"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "cryptodash-backtest", body.Service)
	}
}

func TestDefaultPort(t *testing.T) {
	t.Setenv("CRYPTODASH_HEALTH_PORT", "")
	assert.Equal(t, "8081", NewServer(Config{}).port)

	t.Setenv("CRYPTODASH_HEALTH_PORT", "9000")
	assert.Equal(t, "9000", NewServer(Config{}).port)
}
