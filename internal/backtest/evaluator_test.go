package backtest

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cryptodash-backtest/internal/models"
	"github.com/yourusername/cryptodash-backtest/internal/strategy"
)

var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func pointsFromCloses(closes []float64) []models.PricePoint {
	points := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.PricePoint{
			InstrumentID: 7,
			Time:         seriesStart.Add(time.Duration(i) * time.Hour),
			Open:         c,
			High:         c,
			Low:          c,
			Close:        c,
			Volume:       1,
			Interval:     "1h",
		}
	}
	return points
}

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultConfig(), strategy.NewRegistry())
	require.NoError(t, err)
	return e
}

// upTrendWithDip rises 41 points over 90 days of hourly bars, with a sharp
// dip at bar 300 that drives RSI below 30 exactly once
func upTrendWithDip() []float64 {
	const n = 2160
	closes := make([]float64, n)
	for i := range closes {
		v := 100 + 41*float64(i)/float64(n-1)
		if i%2 == 1 {
			v += 0.3
		} else {
			v -= 0.3
		}
		switch {
		case i >= 300 && i < 320:
			v -= 0.8 * float64(i-299)
		case i >= 320:
			v -= 16
		}
		closes[i] = v
	}
	return closes
}

func TestEvaluateRSIEndToEnd(t *testing.T) {
	e := newTestEvaluator(t)
	points := pointsFromCloses(upTrendWithDip())

	result, err := e.Evaluate(points, models.StrategyRSI, models.Parameters{"period": 14, "oversold": 30, "overbought": 70})
	require.NoError(t, err)

	assert.Equal(t, 1, result.TradeCount)
	assert.Equal(t, 1, result.WinningTrades)
	assert.Equal(t, 0, result.LosingTrades)
	assert.Equal(t, 1.0, result.WinRate)
	assert.Greater(t, result.TotalReturnPct, 20.0)
	assert.Less(t, result.TotalReturnPct, 30.0)
	assert.LessOrEqual(t, result.MaxDrawdown, 0.0)
	assert.Equal(t, 2160, result.DataPoints)
	assert.Equal(t, int64(7), result.InstrumentID)
	assert.Equal(t, "1h", result.Interval)
	assert.Equal(t, points[0].Time, result.StartDate)
	assert.Equal(t, points[len(points)-1].Time, result.EndDate)
	assert.True(t, result.CheckInvariants(1e-9))
}

func TestEvaluateReportsDatesInUTC(t *testing.T) {
	e := newTestEvaluator(t)
	zone := time.FixedZone("UTC+8", 8*60*60)
	points := pointsFromCloses(upTrendWithDip())
	for i := range points {
		points[i].Time = points[i].Time.In(zone)
	}

	result, err := e.Evaluate(points, models.StrategyRSI, models.Parameters{"period": 14, "oversold": 30, "overbought": 70})
	require.NoError(t, err)

	assert.Equal(t, time.UTC, result.StartDate.Location())
	assert.Equal(t, time.UTC, result.EndDate.Location())
	assert.Equal(t, seriesStart, result.StartDate)
	assert.True(t, points[len(points)-1].Time.Equal(result.EndDate))

	// a JSON round trip, as the redis cache does, yields an equal value
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	var decoded models.BacktestResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, result.StartDate, decoded.StartDate)
	assert.Equal(t, result.EndDate, decoded.EndDate)
}

func TestEvaluateFlatSeries(t *testing.T) {
	e := newTestEvaluator(t)
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}

	result, err := e.Evaluate(pointsFromCloses(closes), models.StrategyMACrossover, models.Parameters{"fast_period": 50, "slow_period": 200})
	require.NoError(t, err)

	assert.Equal(t, 0, result.TradeCount)
	assert.Equal(t, 0.0, result.TotalReturnPct)
	assert.Equal(t, 10000.0, result.FinalCapital)
	assert.Equal(t, 0.0, result.WinRate)
	assert.Equal(t, 0.0, result.MaxDrawdown)
	assert.Equal(t, 0.0, result.SharpeRatio)
}

func TestEvaluateBollingerRoundTrip(t *testing.T) {
	e := newTestEvaluator(t)
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	closes[60] = 90
	closes[70] = 115

	sim, err := e.Simulate(pointsFromCloses(closes), models.StrategyBollinger, nil)
	require.NoError(t, err)

	require.Len(t, sim.Trades, 1)
	assert.False(t, sim.Trades[0].Forced)
	assert.Equal(t, 90.0, sim.Trades[0].EntryPrice)
	assert.Equal(t, 115.0, sim.Trades[0].ExitPrice)
	assert.InDelta(t, 10000*115.0/90.0, sim.Result.FinalCapital, 1e-6)
	assert.Equal(t, 1, sim.Result.WinningTrades)
	assert.Len(t, sim.EquityCurve, 80)
	assert.Equal(t, 20.0, sim.Result.Parameters["period"])
}

func TestEvaluateInsufficientData(t *testing.T) {
	e := newTestEvaluator(t)

	closes := make([]float64, 49)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	_, err := e.Evaluate(pointsFromCloses(closes), models.StrategyRSI, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	var insufficient *models.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 49, insufficient.Count)
	assert.Equal(t, 50, insufficient.Required)

	closes = make([]float64, 150)
	for i := range closes {
		closes[i] = 100
	}
	_, err = e.Evaluate(pointsFromCloses(closes), models.StrategyMACrossover, models.Parameters{"fast_period": 50, "slow_period": 200})
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 150, insufficient.Count)
	assert.Equal(t, 200, insufficient.Required)
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	e := newTestEvaluator(t)
	points := pointsFromCloses(upTrendWithDip())

	_, err := e.Evaluate(points, "momentum", nil)
	assert.ErrorIs(t, err, models.ErrUnknownStrategy)

	_, err = e.Evaluate(points, models.StrategyRSI, models.Parameters{"period": -3})
	assert.ErrorIs(t, err, models.ErrInvalidParameters)

	_, err = e.Evaluate(points, models.StrategyMACrossover, models.Parameters{"fast_period": 60, "slow_period": 30})
	assert.ErrorIs(t, err, models.ErrInvalidParameters)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := newTestEvaluator(t)
	points := pointsFromCloses(upTrendWithDip())

	first, err := e.Evaluate(points, models.StrategyRSI, nil)
	require.NoError(t, err)
	second, err := e.Evaluate(points, models.StrategyRSI, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestForcedCloseCountsAsTrade(t *testing.T) {
	e := newTestEvaluator(t)
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	closes[60] = 90
	for i := 61; i < len(closes); i++ {
		closes[i] = 95
	}

	sim, err := e.Simulate(pointsFromCloses(closes), models.StrategyBollinger, nil)
	require.NoError(t, err)

	require.Len(t, sim.Trades, 1)
	assert.True(t, sim.Trades[0].Forced)
	assert.Equal(t, 95.0, sim.Trades[0].ExitPrice)
	assert.Equal(t, 1, sim.Result.TradeCount)
	assert.Equal(t, 1, sim.Result.WinningTrades)
}

func randomWalk(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price *= 1 + rng.NormFloat64()*0.02
		if price < 1 {
			price = 1
		}
		closes[i] = price
	}
	return closes
}

func TestResultInvariantsOnRandomWalks(t *testing.T) {
	e := newTestEvaluator(t)
	ids := []models.StrategyID{models.StrategyRSI, models.StrategyMACrossover, models.StrategyBollinger}

	for seed := int64(1); seed <= 25; seed++ {
		points := pointsFromCloses(randomWalk(seed, 600))
		for _, id := range ids {
			result, err := e.Evaluate(points, id, nil)
			require.NoError(t, err)

			assert.True(t, result.CheckInvariants(1e-9), "seed %d strategy %s", seed, id)
			assert.Equal(t, result.TradeCount, result.WinningTrades+result.LosingTrades)
			assert.LessOrEqual(t, result.MaxDrawdown, 0.0)
			assert.GreaterOrEqual(t, result.MaxDrawdown, -1.0)
			assert.False(t, math.IsNaN(result.SharpeRatio))
			assert.Greater(t, result.FinalCapital, 0.0)
		}
	}
}

func TestNewEvaluatorValidation(t *testing.T) {
	_, err := NewEvaluator(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.InitialCapital = 0
	_, err = NewEvaluator(cfg, strategy.NewRegistry())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.MinDataPoints = 10
	_, err = NewEvaluator(cfg, strategy.NewRegistry())
	assert.Error(t, err)
}
