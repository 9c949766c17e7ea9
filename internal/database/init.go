package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/config"
)

// Initialize creates a database connection pool and verifies TimescaleDB installation
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	var extName string
	err = db.pool.QueryRow(ctx, "SELECT extname FROM pg_extension WHERE extname = 'timescaledb'").Scan(&extName)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf(
			"TimescaleDB extension not found, install it before starting the service: %w", err)
	}

	// price_points must already be populated by the collector
	var hypertables int
	err = db.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM timescaledb_information.hypertables WHERE hypertable_name = 'price_points'",
	).Scan(&hypertables)
	if err != nil || hypertables == 0 {
		logger.Warn("price_points is not a hypertable; apply migrations/001_init.sql")
	}

	return db, nil
}
