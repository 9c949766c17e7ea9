package repository

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/yourusername/cryptodash-backtest/internal/database"
)

// psql builds Postgres statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all repository implementations
type Repositories struct {
	Instrument     InstrumentRepository
	Price          PriceRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Instrument:     NewPostgresInstrumentRepository(db),
		Price:          NewPostgresPriceRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}
