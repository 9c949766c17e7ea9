package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// InstrumentRepository defines read access to the instrument catalogue
type InstrumentRepository interface {
	ListEligible(ctx context.Context) ([]*models.Instrument, error)
	GetByID(ctx context.Context, id int64) (*models.Instrument, error)
}

// PriceRepository defines read access to stored OHLCV bars.
// Zero start or end leaves that side of the range unbounded.
type PriceRepository interface {
	GetRange(ctx context.Context, instrumentID int64, interval string, start, end time.Time) ([]models.PricePoint, error)
}

// BacktestResultRepository defines backtest result persistence
type BacktestResultRepository interface {
	SaveResult(ctx context.Context, runID uuid.UUID, result *models.BacktestResult) error
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.BacktestResult, error)
	GetLatestForInstrument(ctx context.Context, instrumentID int64, strategyID models.StrategyID, limit int) ([]*models.BacktestResult, error)
}
