// Package health serves the backtest service's liveness and readiness
// endpoints on a port separate from the API. Readiness pings the price store
// and result cache; only a critical dependency can take the service out of
// rotation, a lost cache just reports degraded.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPort  = "8081"
	checkTimeout = 3 * time.Second

	statusOK       = "ok"
	statusDegraded = "degraded"
	statusNotReady = "not_ready"
)

// Pinger is anything /ready can reach out to
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check names one dependency. A failing non-critical check degrades the
// service without failing readiness.
type Check struct {
	Name     string
	Pinger   Pinger
	Critical bool
}

// HealthResponse is the body of /health and /live
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config for NewServer. Port falls back to CRYPTODASH_HEALTH_PORT, then 8081.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string
	Logger      *logrus.Logger
	Checks      []Check
}

// Server answers orchestrator health checks for the backtest service
type Server struct {
	cfg    Config
	port   string
	ready  atomic.Bool
	server *http.Server
}

func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("CRYPTODASH_HEALTH_PORT")
	}
	if port == "" {
		port = defaultPort
	}
	return &Server{cfg: cfg, port: port}
}

// SetReady flips readiness; the service starts not ready and is marked
// ready once the API listener is up, then unready again on shutdown.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Server) IsReady() bool { return s.ready.Load() }

// Handler routes /health, /live and /ready
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/ready", s.handleReady)
	return mux
}

// Start listens in the background until ctx is done
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log := s.log()

	go func() {
		log.WithField("port", s.port).Info("Health endpoints listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Health endpoints stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()
	return nil
}

// Shutdown waits up to five seconds for open checks to finish
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) log() *logrus.Entry {
	base := s.cfg.Logger
	if base == nil {
		base = logrus.StandardLogger()
	}
	return base.WithFields(logrus.Fields{"component": "health", "service": s.cfg.ServiceName})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    statusOK,
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: statusOK, Service: s.cfg.ServiceName})
}

// handleReady pings every dependency at once under a shared timeout
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	results := map[string]string{"service": statusOK}
	if !s.IsReady() {
		results["service"] = statusNotReady
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failed   bool
		degraded bool
	)
	for _, c := range s.cfg.Checks {
		if c.Pinger == nil {
			continue
		}
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			err := c.Pinger.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				results[c.Name] = statusOK
			case c.Critical:
				failed = true
				results[c.Name] = fmt.Sprintf("error: %v", err)
			default:
				degraded = true
				results[c.Name] = fmt.Sprintf("%s: %v", statusDegraded, err)
			}
		}(c)
	}
	wg.Wait()

	resp := ReadyResponse{
		Status:   statusOK,
		Service:  s.cfg.ServiceName,
		Checks:   results,
		Duration: time.Since(started).String(),
	}
	code := http.StatusOK
	switch {
	case failed || !s.IsReady():
		resp.Status = statusNotReady
		code = http.StatusServiceUnavailable
	case degraded:
		resp.Status = statusDegraded
	}
	if code != http.StatusOK || degraded {
		s.log().WithField("checks", results).Warn("Readiness check reported a problem")
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
