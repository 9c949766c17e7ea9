package backtest

import (
	"math"
)

// zeroVariance treats float noise on a constant return series as no variance
const zeroVariance = 1e-12

// calculateSharpeRatio scales the per-bar Sharpe ratio by sqrt(periods).
// The risk-free rate is per annualization window.
func calculateSharpeRatio(returns []float64, riskFreeRate, periods float64) float64 {
	if len(returns) == 0 || periods <= 0 {
		return 0
	}
	std := stddev(returns)
	if std < zeroVariance {
		return 0
	}
	return (average(returns) - riskFreeRate/periods) / std * math.Sqrt(periods)
}

// calculateMaxDrawdown returns the most negative equity/peak - 1, so it is never positive
func calculateMaxDrawdown(curve EquityCurve) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		if dd := p.Value/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func calculateTradeStats(trades []Trade) (wins, losses int) {
	for _, t := range trades {
		if t.Won() {
			wins++
		} else {
			losses++
		}
	}
	return wins, losses
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
