package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/cryptodash-backtest/internal/database"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

var instrumentColumns = []string{"id", "symbol", "name", "active", "has_sufficient_history"}

var eligibleInstruments = squirrel.Eq{"active": true, "has_sufficient_history": true}

// PostgresInstrumentRepository implements InstrumentRepository for PostgreSQL
type PostgresInstrumentRepository struct {
	db *database.DB
}

// NewPostgresInstrumentRepository creates a new instrument repository
func NewPostgresInstrumentRepository(db *database.DB) InstrumentRepository {
	return &PostgresInstrumentRepository{db: db}
}

func buildEligibleQuery() (string, []interface{}, error) {
	return psql.Select(instrumentColumns...).
		From("instruments").
		Where(eligibleInstruments).
		OrderBy("symbol ASC").
		ToSql()
}

// ListEligible returns active instruments flagged with sufficient history
func (r *PostgresInstrumentRepository) ListEligible(ctx context.Context) ([]*models.Instrument, error) {
	query, args, err := buildEligibleQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to build instrument query: %w", err)
	}

	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible instruments: %w", err)
	}
	defer rows.Close()

	var instruments []*models.Instrument
	for rows.Next() {
		inst := &models.Instrument{}
		if err := rows.Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.Active, &inst.HasSufficientHistory); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}
	return instruments, rows.Err()
}

// GetByID retrieves an instrument by ID
func (r *PostgresInstrumentRepository) GetByID(ctx context.Context, id int64) (*models.Instrument, error) {
	query, args, err := psql.Select(instrumentColumns...).
		From("instruments").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build instrument query: %w", err)
	}

	inst := &models.Instrument{}
	err = r.db.GetPool().QueryRow(ctx, query, args...).
		Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.Active, &inst.HasSufficientHistory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}
	return inst, nil
}
