// Package main runs the backtest API, health endpoints and cache warm-up jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/cryptodash-backtest/internal/api"
	"github.com/yourusername/cryptodash-backtest/internal/backtest"
	"github.com/yourusername/cryptodash-backtest/internal/batch"
	"github.com/yourusername/cryptodash-backtest/internal/cache"
	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/database"
	"github.com/yourusername/cryptodash-backtest/internal/health"
	applogger "github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/marketdata"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
	"github.com/yourusername/cryptodash-backtest/internal/repository"
	"github.com/yourusername/cryptodash-backtest/internal/scheduler"
	"github.com/yourusername/cryptodash-backtest/internal/strategy"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "cryptodash-backtest",
	Short: "Streaming batch backtest service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context(), configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return serve(cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", Version, GitCommit)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, errors.New("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(cfg *config.Config) error {
	appLog := applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Backtest service starting")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Initialize(ctx, cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}

	resultCache, err := cache.New(&cfg.Cache, appLog)
	if err != nil {
		return fmt.Errorf("failed to create result cache: %w", err)
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			appLog.WithError(err).Warn("Failed to close result cache")
		}
	}()

	registry := strategy.NewRegistry()
	evalCfg, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return err
	}
	evaluator, err := backtest.NewEvaluator(evalCfg, registry)
	if err != nil {
		return err
	}

	accessor := marketdata.NewAccessor(repos.Instrument, repos.Price, cfg.Backtest.SupportedIntervals)

	var opts []batch.Option
	if cfg.Backtest.PersistResults {
		opts = append(opts, batch.WithRecorder(repos.BacktestResult))
	}
	orchestrator, err := batch.NewOrchestrator(
		batch.ConfigFrom(&cfg.Backtest, &cfg.Cache), accessor, evaluator, resultCache, appLog, opts...)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	apiServer, err := api.NewServer(cfg.Server, cfg.Metrics, api.Dependencies{
		Batches:     orchestrator,
		Strategies:  registry,
		Instruments: accessor,
	}, appLog, cfg.IsProduction())
	if err != nil {
		return err
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		Checks: []health.Check{
			{Name: "database", Pinger: db, Critical: true},
			{Name: "cache", Pinger: resultCache},
		},
	})
	if err := healthServer.Start(ctx); err != nil {
		return err
	}

	metricsServer := startMetricsServer(cfg, appLog)

	sched := scheduler.NewScheduler(orchestrator, appLog)
	if cfg.Scheduler.Enabled {
		for _, job := range cfg.Scheduler.Warmup {
			if err := sched.ScheduleWarmup(job); err != nil {
				return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
			}
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- apiServer.Start() }()

	healthServer.SetReady(true)
	appLog.WithField("port", cfg.Server.Port).Info("Backtest service ready")

	select {
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			appLog.WithError(err).Error("API server stopped")
		}
	}
	healthServer.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		appLog.WithError(err).Warn("Scheduler did not stop cleanly")
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Warn("API server did not stop cleanly")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	_ = healthServer.Shutdown()

	appLog.Info("Backtest service stopped")
	return nil
}

// startMetricsServer exposes metrics on their own port when it differs from
// the API port. The API router serves the same path either way.
func startMetricsServer(cfg *config.Config, appLog *logrus.Logger) *http.Server {
	if !cfg.Metrics.Enabled || cfg.Metrics.Port == cfg.Server.Port {
		return nil
	}
	metrics.InitRegistry()
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	return srv
}
