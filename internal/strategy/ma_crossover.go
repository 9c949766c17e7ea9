package strategy

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// MACrossover trades crossings of a fast and a slow simple moving average.
// Positions change only on the bar where the averages cross.
type MACrossover struct{}

// NewMACrossover creates the moving-average crossover strategy
func NewMACrossover() *MACrossover { return &MACrossover{} }

// Definition implements Strategy
func (s *MACrossover) Definition() models.StrategyDefinition {
	return models.StrategyDefinition{
		ID:          models.StrategyMACrossover,
		Name:        "Moving Average Crossover",
		Description: "Buy when the fast SMA crosses above the slow SMA, sell when it crosses below.",
		Parameters: []models.ParameterSpec{
			{Name: "fast_period", Description: "Fast SMA length in bars", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "slow_period", Description: "Slow SMA length in bars", Default: 50, Min: 3, Max: 500, Integer: true},
		},
	}
}

// Check implements Strategy
func (s *MACrossover) Check(params models.Parameters) error {
	if params["fast_period"] >= params["slow_period"] {
		return &models.InvalidParametersError{Parameter: "fast_period", Reason: "must be shorter than slow_period"}
	}
	return nil
}

// Lookback implements Strategy
func (s *MACrossover) Lookback(params models.Parameters) int {
	return params.Int("slow_period")
}

// Signals implements Strategy
func (s *MACrossover) Signals(closes []float64, params models.Parameters) []Signal {
	out := make([]Signal, len(closes))
	slowPeriod := params.Int("slow_period")
	if len(closes) < slowPeriod {
		return out
	}

	fast := indicators.SMA(closes, params.Int("fast_period"))
	slow := indicators.SMA(closes, slowPeriod)

	for i := slowPeriod; i < len(closes); i++ {
		switch {
		case crossedAbove(fast[i-1], fast[i], slow[i-1], slow[i]):
			out[i] = Buy
		case crossedBelow(fast[i-1], fast[i], slow[i-1], slow[i]):
			out[i] = Sell
		}
	}
	return out
}
