package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/cryptodash-backtest/internal/models"
	"github.com/yourusername/cryptodash-backtest/internal/strategy"
)

// Evaluator runs a single strategy over a single instrument's price history.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	config   EvaluatorConfig
	registry *strategy.Registry
}

// Simulation is the full outcome of one evaluation
type Simulation struct {
	Result      models.BacktestResult
	Trades      []Trade
	EquityCurve EquityCurve
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg EvaluatorConfig, registry *strategy.Registry) (*Evaluator, error) {
	if registry == nil {
		return nil, fmt.Errorf("strategy registry is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{config: cfg, registry: registry}, nil
}

// Config returns the evaluator configuration
func (e *Evaluator) Config() EvaluatorConfig {
	return e.config
}

// Registry returns the strategy registry used to bind parameters
func (e *Evaluator) Registry() *strategy.Registry {
	return e.registry
}

// Required returns the number of bars a run of strat with params needs
func (e *Evaluator) Required(strat strategy.Strategy, params models.Parameters) int {
	required := e.config.MinDataPoints
	if lb := strat.Lookback(params); lb > required {
		required = lb
	}
	return required
}

// Evaluate computes performance metrics for one strategy over points. Points
// must be in ascending time order. ComputationTime and Symbol are left for
// the caller.
func (e *Evaluator) Evaluate(points []models.PricePoint, id models.StrategyID, params models.Parameters) (models.BacktestResult, error) {
	sim, err := e.Simulate(points, id, params)
	if err != nil {
		return models.BacktestResult{}, err
	}
	return sim.Result, nil
}

// Simulate is Evaluate with the trade list and equity curve retained
func (e *Evaluator) Simulate(points []models.PricePoint, id models.StrategyID, params models.Parameters) (*Simulation, error) {
	strat, bound, err := e.registry.Bind(id, params)
	if err != nil {
		return nil, err
	}

	if required := e.Required(strat, bound); len(points) < required {
		return nil, &models.InsufficientDataError{Count: len(points), Required: required}
	}

	signals := strat.Signals(models.Closes(points), bound)
	state := NewPortfolioState(e.config.InitialCapital)
	last := len(points) - 1

	for i, p := range points {
		switch signals[i] {
		case strategy.Buy:
			state.Buy(p.Time, p.Close)
		case strategy.Sell:
			state.Sell(p.Time, p.Close, false)
		}
		if i == last && state.Long() {
			state.Sell(p.Time, p.Close, true)
		}
		state.RecordEquityPoint(p.Time, state.Equity(p.Close))
	}

	final := state.Equity(points[last].Close)
	wins, losses := calculateTradeStats(state.Trades)
	total := len(state.Trades)

	result := models.BacktestResult{
		InstrumentID:   points[0].InstrumentID,
		StrategyID:     id,
		Parameters:     bound,
		Interval:       points[0].Interval,
		StartDate:      points[0].Time.UTC(),
		EndDate:        points[last].Time.UTC(),
		InitialCapital: e.config.InitialCapital,
		FinalCapital:   final,
		TotalReturnPct: (final/e.config.InitialCapital - 1) * 100,
		TradeCount:     total,
		WinningTrades:  wins,
		LosingTrades:   losses,
		WinRate:        calculateWinRate(wins, total),
		MaxDrawdown:    calculateMaxDrawdown(state.EquityCurve),
		SharpeRatio:    calculateSharpeRatio(state.EquityCurve.GetReturns(), e.config.RiskFreeRate, e.config.AnnualizationPeriods),
		DataPoints:     len(points),
	}

	return &Simulation{
		Result:      result,
		Trades:      state.Trades,
		EquityCurve: state.EquityCurve,
	}, nil
}

// Timed runs Evaluate and stamps the elapsed wall time on the result
func (e *Evaluator) Timed(points []models.PricePoint, id models.StrategyID, params models.Parameters) (models.BacktestResult, error) {
	started := time.Now()
	result, err := e.Evaluate(points, id, params)
	if err != nil {
		return result, err
	}
	result.ComputationTime = time.Since(started)
	return result, nil
}
