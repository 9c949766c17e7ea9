// Package api exposes batch backtests over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/api/handlers"
	"github.com/yourusername/cryptodash-backtest/internal/api/middleware"
	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
)

// Dependencies are the collaborators the API serves
type Dependencies struct {
	Batches     handlers.BatchStarter
	Strategies  handlers.StrategyLister
	Instruments handlers.InstrumentLister
}

// Server is the public HTTP API
type Server struct {
	cfg    config.ServerConfig
	router *gin.Engine
	server *http.Server
	logger *logrus.Logger
}

// NewServer builds the router and its middleware chain
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, deps Dependencies, log *logrus.Logger, production bool) (*Server, error) {
	if deps.Batches == nil || deps.Strategies == nil || deps.Instruments == nil {
		return nil, fmt.Errorf("api dependencies are incomplete")
	}
	if log == nil {
		log = logrus.New()
	}
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	access := logger.NewAccessLogger(log)
	router := gin.New()
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.Logger(access))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	backtests := handlers.NewBacktestHandler(deps.Batches, access, OriginChecker(cfg.AllowedOrigins))
	catalog := handlers.NewCatalogHandler(deps.Strategies, deps.Instruments)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	api := router.Group("/api/v1")
	{
		api.POST("/backtests/stream", limiter.Middleware(), backtests.StreamBacktest)
		api.GET("/backtests/ws", limiter.Middleware(), backtests.WebSocketBacktest)
		api.GET("/strategies", catalog.ListStrategies)
		api.GET("/instruments", catalog.ListInstruments)
	}

	if metricsCfg.Enabled {
		metrics.InitRegistry()
		router.GET(metricsCfg.Path, gin.WrapH(metrics.Handler()))
	}

	s := &Server{cfg: cfg, router: router, logger: log}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		// zero keeps long-lived streams open
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown drains open requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}

// OriginChecker accepts websocket upgrades from the allowed origins. An empty
// list or "*" accepts any origin.
func OriginChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
