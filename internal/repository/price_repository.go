package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/yourusername/cryptodash-backtest/internal/database"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// PostgresPriceRepository implements PriceRepository over the price_points hypertable
type PostgresPriceRepository struct {
	db *database.DB
}

// NewPostgresPriceRepository creates a new price repository
func NewPostgresPriceRepository(db *database.DB) PriceRepository {
	return &PostgresPriceRepository{db: db}
}

// buildPriceRangeQuery selects bars in the closed range [start, end], ascending.
// A zero bound is omitted from the predicate.
func buildPriceRangeQuery(instrumentID int64, interval string, start, end time.Time) (string, []interface{}, error) {
	q := psql.Select("instrument_id", "time", "open", "high", "low", "close", "volume", "timeframe").
		From("price_points").
		Where(squirrel.Eq{"instrument_id": instrumentID}).
		Where(squirrel.Eq{"timeframe": interval})

	if !start.IsZero() {
		q = q.Where(squirrel.GtOrEq{"time": start})
	}
	if !end.IsZero() {
		q = q.Where(squirrel.LtOrEq{"time": end})
	}

	return q.OrderBy("time ASC").ToSql()
}

// GetRange retrieves bars for an instrument and interval
func (r *PostgresPriceRepository) GetRange(ctx context.Context, instrumentID int64, interval string, start, end time.Time) ([]models.PricePoint, error) {
	query, args, err := buildPriceRangeQuery(instrumentID, interval, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build price query: %w", err)
	}

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price points: %w", err)
	}
	defer rows.Close()

	points := make([]models.PricePoint, 0, 512)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.InstrumentID, &p.Time, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.Interval); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		// pgx decodes timestamptz in the local zone
		p.Time = p.Time.UTC()
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price points: %w", err)
	}
	return points, nil
}
