package strategy

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// RSI is a mean-reversion strategy on Wilder's relative strength index.
// It buys when RSI crosses below the oversold level and sells when RSI
// crosses above the overbought level. Long only.
type RSI struct{}

// NewRSI creates the RSI strategy
func NewRSI() *RSI { return &RSI{} }

// Definition implements Strategy
func (s *RSI) Definition() models.StrategyDefinition {
	return models.StrategyDefinition{
		ID:          models.StrategyRSI,
		Name:        "RSI Mean Reversion",
		Description: "Buy when RSI crosses below the oversold level, sell when it crosses above the overbought level.",
		Parameters: []models.ParameterSpec{
			{Name: "period", Description: "RSI lookback in bars", Default: 14, Min: 2, Max: 100, Integer: true},
			{Name: "oversold", Description: "Entry threshold", Default: 30, Min: 1, Max: 50},
			{Name: "overbought", Description: "Exit threshold", Default: 70, Min: 50, Max: 99},
		},
	}
}

// Check implements Strategy
func (s *RSI) Check(params models.Parameters) error {
	if params["oversold"] >= params["overbought"] {
		return &models.InvalidParametersError{Parameter: "oversold", Reason: "must be below overbought"}
	}
	return nil
}

// Lookback implements Strategy. The first RSI value needs period changes.
func (s *RSI) Lookback(params models.Parameters) int {
	return params.Int("period") + 1
}

// Signals implements Strategy
func (s *RSI) Signals(closes []float64, params models.Parameters) []Signal {
	out := make([]Signal, len(closes))
	period := params.Int("period")
	if len(closes) < s.Lookback(params) {
		return out
	}

	rsi := indicators.RSI(closes, period)
	oversold, overbought := params["oversold"], params["overbought"]

	// rsi[period] is the first defined value
	for i := period + 1; i < len(closes); i++ {
		switch {
		case crossedBelow(rsi[i-1], rsi[i], oversold, oversold):
			out[i] = Buy
		case crossedAbove(rsi[i-1], rsi[i], overbought, overbought):
			out[i] = Sell
		}
	}
	return out
}
