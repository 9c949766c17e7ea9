package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func curveOf(values ...float64) EquityCurve {
	curve := make(EquityCurve, len(values))
	for i, v := range values {
		curve[i] = EquityPoint{Time: seriesStart.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return curve
}

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}
	perBar := calculateSharpeRatio(returns, 0, 1)
	assert.InDelta(t, average(returns)/stddev(returns), perBar, 1e-12)

	annualized := calculateSharpeRatio(returns, 0, 365)
	assert.InDelta(t, perBar*math.Sqrt(365), annualized, 1e-9)

	withRiskFree := calculateSharpeRatio(returns, 0.0365, 365)
	assert.Less(t, withRiskFree, annualized)
}

func TestSharpeRatioZeroVariance(t *testing.T) {
	assert.Equal(t, 0.0, calculateSharpeRatio([]float64{0.001, 0.001, 0.001}, 0, 1))
	assert.Equal(t, 0.0, calculateSharpeRatio([]float64{0, 0, 0}, 0, 252))
	assert.Equal(t, 0.0, calculateSharpeRatio(nil, 0, 1))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, calculateMaxDrawdown(curveOf(100, 110, 120)))
	assert.InDelta(t, -0.5, calculateMaxDrawdown(curveOf(100, 200, 100, 150)), 1e-12)
	assert.InDelta(t, -0.25, calculateMaxDrawdown(curveOf(100, 75, 90, 120, 100)), 1e-12)
}

func TestTradeStats(t *testing.T) {
	trades := []Trade{{PnL: 10}, {PnL: 0}, {PnL: -3}, {PnL: 1}}
	wins, losses := calculateTradeStats(trades)
	assert.Equal(t, 2, wins)
	assert.Equal(t, 2, losses)
	assert.Equal(t, 0.5, calculateWinRate(wins, len(trades)))
	assert.Equal(t, 0.0, calculateWinRate(0, 0))
}

func TestEquityCurveReturns(t *testing.T) {
	returns := curveOf(100, 110, 99).GetReturns()
	assert.InDeltaSlice(t, []float64{0.1, -0.1}, returns, 1e-12)
	assert.Empty(t, curveOf(100).GetReturns())
	assert.Contains(t, curveOf(100).ToCSV(), "time,value,drawdown\n")
}

func TestPortfolioStateIgnoresRedundantSignals(t *testing.T) {
	state := NewPortfolioState(1000)
	assert.False(t, state.Sell(seriesStart, 10, false))
	assert.True(t, state.Buy(seriesStart, 10))
	assert.False(t, state.Buy(seriesStart, 5))
	assert.Equal(t, 100.0, state.Units)
	assert.Equal(t, 1500.0, state.Equity(15))
	assert.True(t, state.Sell(seriesStart, 15, false))
	assert.Equal(t, 1500.0, state.Cash)
	assert.Len(t, state.Trades, 1)
	assert.Equal(t, 500.0, state.Trades[0].PnL)
}

func TestFromConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 1.0, cfg.AnnualizationPeriods)
	assert.Equal(t, MinDataPoints, cfg.MinDataPoints)

	_, err := FromConfig(nil)
	assert.Error(t, err)
}
