package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/cryptodash-backtest/internal/database"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

const errScanBacktestResult = "failed to scan backtest result: %w"

var backtestResultColumns = []string{
	"instrument_id", "symbol", "strategy_id", "parameters", "timeframe", "start_date", "end_date",
	"initial_capital", "final_capital", "total_return_pct", "trade_count", "winning_trades",
	"losing_trades", "win_rate", "max_drawdown", "sharpe_ratio", "data_points", "computation_ms",
}

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

func buildInsertResultQuery(runID uuid.UUID, result *models.BacktestResult, createdAt time.Time) (string, []interface{}, error) {
	params, err := json.Marshal(result.Parameters)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	return psql.Insert("backtest_results").
		Columns(append([]string{"id", "run_id"}, append(backtestResultColumns, "created_at")...)...).
		Values(
			uuid.New(), runID,
			result.InstrumentID, result.Symbol, string(result.StrategyID), params, result.Interval,
			nullTime(result.StartDate), nullTime(result.EndDate),
			result.InitialCapital, result.FinalCapital, result.TotalReturnPct, result.TradeCount,
			result.WinningTrades, result.LosingTrades, result.WinRate, result.MaxDrawdown,
			result.SharpeRatio, result.DataPoints, result.ComputationTime.Milliseconds(),
			createdAt,
		).
		ToSql()
}

// SaveResult inserts a backtest result produced by a batch run
func (r *PostgresBacktestResultRepository) SaveResult(ctx context.Context, runID uuid.UUID, result *models.BacktestResult) error {
	query, args, err := buildInsertResultQuery(runID, result, time.Now().UTC())
	if err != nil {
		return err
	}

	if _, err := r.db.GetPool().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetByRunID retrieves every result recorded for a batch run
func (r *PostgresBacktestResultRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.BacktestResult, error) {
	query, args, err := psql.Select(backtestResultColumns...).
		From("backtest_results").
		Where("run_id = ?", runID).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build backtest result query: %w", err)
	}
	return r.query(ctx, query, args...)
}

// GetLatestForInstrument retrieves the newest results for an instrument and strategy
func (r *PostgresBacktestResultRepository) GetLatestForInstrument(ctx context.Context, instrumentID int64, strategyID models.StrategyID, limit int) ([]*models.BacktestResult, error) {
	query, args, err := psql.Select(backtestResultColumns...).
		From("backtest_results").
		Where("instrument_id = ?", instrumentID).
		Where("strategy_id = ?", string(strategyID)).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build backtest result query: %w", err)
	}
	return r.query(ctx, query, args...)
}

func (r *PostgresBacktestResultRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.BacktestResult, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		result, err := scanBacktestResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanBacktestResult(row pgx.Row) (*models.BacktestResult, error) {
	var (
		result        models.BacktestResult
		strategyID    string
		params        []byte
		start, end    *time.Time
		computationMs int64
	)
	if err := row.Scan(
		&result.InstrumentID, &result.Symbol, &strategyID, &params, &result.Interval, &start, &end,
		&result.InitialCapital, &result.FinalCapital, &result.TotalReturnPct, &result.TradeCount,
		&result.WinningTrades, &result.LosingTrades, &result.WinRate, &result.MaxDrawdown,
		&result.SharpeRatio, &result.DataPoints, &computationMs,
	); err != nil {
		return nil, fmt.Errorf(errScanBacktestResult, err)
	}

	result.StrategyID = models.StrategyID(strategyID)
	if len(params) > 0 {
		if err := json.Unmarshal(params, &result.Parameters); err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
	}
	if start != nil {
		result.StartDate = *start
	}
	if end != nil {
		result.EndDate = *end
	}
	result.ComputationTime = time.Duration(computationMs) * time.Millisecond
	return &result, nil
}

// nullTime maps an unbounded range edge to SQL NULL
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
