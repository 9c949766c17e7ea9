package backtest

import (
	"fmt"

	"github.com/yourusername/cryptodash-backtest/internal/config"
)

// MinDataPoints is the evaluation floor applied to every strategy
const MinDataPoints = 50

// EvaluatorConfig holds the simulation and metric settings
type EvaluatorConfig struct {
	InitialCapital float64
	RiskFreeRate   float64
	// AnnualizationPeriods scales the Sharpe ratio; 1 leaves it per-bar
	AnnualizationPeriods float64
	MinDataPoints        int
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() EvaluatorConfig {
	return EvaluatorConfig{
		InitialCapital:       10000,
		AnnualizationPeriods: 1,
		MinDataPoints:        MinDataPoints,
	}
}

// FromConfig converts app config to evaluator config
func FromConfig(cfg *config.BacktestConfig) (EvaluatorConfig, error) {
	if cfg == nil {
		return EvaluatorConfig{}, fmt.Errorf("backtest config is required")
	}

	ec := EvaluatorConfig{
		InitialCapital:       cfg.InitialCapital,
		RiskFreeRate:         cfg.RiskFreeRate,
		AnnualizationPeriods: cfg.AnnualizationPeriods,
		MinDataPoints:        MinDataPoints,
	}
	return ec, ec.Validate()
}

// Validate validates evaluator parameters
func (c EvaluatorConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.AnnualizationPeriods <= 0 {
		return fmt.Errorf("annualization periods must be positive")
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk free rate cannot be negative")
	}
	if c.MinDataPoints < MinDataPoints {
		return fmt.Errorf("minimum data points cannot be below %d", MinDataPoints)
	}
	return nil
}
