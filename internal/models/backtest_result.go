package models

import (
	"math"
	"time"
)

// BacktestResult is the outcome of one strategy run over one instrument.
// Results are immutable once produced and may be shared through the cache.
type BacktestResult struct {
	InstrumentID    int64         `db:"instrument_id" json:"instrument_id"`
	Symbol          string        `db:"symbol" json:"symbol"`
	StrategyID      StrategyID    `db:"strategy_id" json:"strategy_id"`
	Parameters      Parameters    `db:"parameters" json:"parameters"`
	Interval        string        `db:"interval" json:"interval"`
	StartDate       time.Time     `db:"start_date" json:"start_date"`
	EndDate         time.Time     `db:"end_date" json:"end_date"`
	InitialCapital  float64       `db:"initial_capital" json:"initial_capital"`
	FinalCapital    float64       `db:"final_capital" json:"final_capital"`
	TotalReturnPct  float64       `db:"total_return_pct" json:"total_return_pct"`
	TradeCount      int           `db:"trade_count" json:"trade_count"`
	WinningTrades   int           `db:"winning_trades" json:"winning_trades"`
	LosingTrades    int           `db:"losing_trades" json:"losing_trades"`
	WinRate         float64       `db:"win_rate" json:"win_rate"`
	MaxDrawdown     float64       `db:"max_drawdown" json:"max_drawdown"`
	SharpeRatio     float64       `db:"sharpe_ratio" json:"sharpe_ratio"`
	DataPoints      int           `db:"data_points" json:"data_points"`
	ComputationTime time.Duration `db:"computation_time" json:"computation_time_ns"`
}

// CheckInvariants verifies the internal consistency of a result.
// tolerance is relative and applies to the capital reconciliation.
func (r *BacktestResult) CheckInvariants(tolerance float64) bool {
	if r.TradeCount != r.WinningTrades+r.LosingTrades {
		return false
	}
	if r.TradeCount == 0 && r.WinRate != 0 {
		return false
	}
	if r.WinRate < 0 || r.WinRate > 1 {
		return false
	}
	if r.MaxDrawdown > 0 {
		return false
	}
	expected := r.InitialCapital * (1 + r.TotalReturnPct/100)
	if r.FinalCapital == 0 {
		return math.Abs(expected) <= tolerance
	}
	return math.Abs(expected-r.FinalCapital)/math.Abs(r.FinalCapital) <= tolerance
}
