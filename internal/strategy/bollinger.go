package strategy

import (
	"github.com/thrasher-corp/gct-ta/indicators"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// BollingerBands buys when the close breaks below the lower band and sells
// when it breaks above the upper band.
type BollingerBands struct{}

// NewBollingerBands creates the Bollinger Bands strategy
func NewBollingerBands() *BollingerBands { return &BollingerBands{} }

// Definition implements Strategy
func (s *BollingerBands) Definition() models.StrategyDefinition {
	return models.StrategyDefinition{
		ID:          models.StrategyBollinger,
		Name:        "Bollinger Bands",
		Description: "Buy on a close below the lower band, sell on a close above the upper band.",
		Parameters: []models.ParameterSpec{
			{Name: "period", Description: "Rolling window in bars", Default: 20, Min: 2, Max: 200, Integer: true},
			{Name: "std_dev", Description: "Band width in standard deviations", Default: 2, Min: 0.5, Max: 5},
		},
	}
}

// Check implements Strategy
func (s *BollingerBands) Check(params models.Parameters) error { return nil }

// Lookback implements Strategy
func (s *BollingerBands) Lookback(params models.Parameters) int {
	return params.Int("period")
}

// Signals implements Strategy
func (s *BollingerBands) Signals(closes []float64, params models.Parameters) []Signal {
	out := make([]Signal, len(closes))
	period := params.Int("period")
	if len(closes) < period {
		return out
	}

	k := params["std_dev"]
	upper, _, lower := indicators.BBANDS(closes, period, k, k, indicators.Sma)

	for i := period; i < len(closes); i++ {
		switch {
		case crossedBelow(closes[i-1], closes[i], lower[i-1], lower[i]):
			out[i] = Buy
		case crossedAbove(closes[i-1], closes[i], upper[i-1], upper[i]):
			out[i] = Sell
		}
	}
	return out
}
