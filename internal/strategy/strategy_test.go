package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

func signalIndexes(signals []Signal, want Signal) []int {
	var idx []int
	for i, s := range signals {
		if s == want {
			idx = append(idx, i)
		}
	}
	return idx
}

func bind(t *testing.T, id models.StrategyID, params models.Parameters) (Strategy, models.Parameters) {
	t.Helper()
	s, bound, err := NewRegistry().Bind(id, params)
	require.NoError(t, err)
	return s, bound
}

// wiggle around 100, then a steady decline, then a steady rally
func rsiSeries() []float64 {
	closes := make([]float64, 0, 80)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100+0.5*float64(i%2))
	}
	for i := 0; i < 15; i++ {
		closes = append(closes, closes[len(closes)-1]-1)
	}
	for i := 0; i < 25; i++ {
		closes = append(closes, closes[len(closes)-1]+1)
	}
	return closes
}

func TestRSISignals(t *testing.T) {
	s, params := bind(t, models.StrategyRSI, nil)

	signals := s.Signals(rsiSeries(), params)
	require.Len(t, signals, 80)

	buys := signalIndexes(signals, Buy)
	sells := signalIndexes(signals, Sell)
	require.Len(t, buys, 1)
	require.Len(t, sells, 1)
	assert.Greater(t, buys[0], 40)
	assert.Less(t, buys[0], 55)
	assert.Greater(t, sells[0], 55)
}

func TestRSIWarmupHolds(t *testing.T) {
	s, params := bind(t, models.StrategyRSI, nil)

	signals := s.Signals(rsiSeries(), params)
	for i := 0; i <= params.Int("period"); i++ {
		assert.Equal(t, Hold, signals[i], "bar %d", i)
	}

	short := s.Signals([]float64{1, 2, 3}, params)
	assert.Equal(t, []Signal{Hold, Hold, Hold}, short)
}

func TestMACrossoverSignalsOnlyOnCross(t *testing.T) {
	s, params := bind(t, models.StrategyMACrossover, models.Parameters{"fast_period": 5, "slow_period": 20})

	closes := make([]float64, 60)
	for i := range closes {
		if i < 30 {
			closes[i] = 130 - float64(i)
		} else {
			closes[i] = 71 + float64(i)
		}
	}

	signals := s.Signals(closes, params)
	buys := signalIndexes(signals, Buy)
	require.Len(t, buys, 1)
	assert.Greater(t, buys[0], 30)
	assert.Empty(t, signalIndexes(signals, Sell))
}

func TestMACrossoverFlatSeries(t *testing.T) {
	s, params := bind(t, models.StrategyMACrossover, models.Parameters{"fast_period": 50, "slow_period": 200})

	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
	}

	signals := s.Signals(closes, params)
	assert.Empty(t, signalIndexes(signals, Buy))
	assert.Empty(t, signalIndexes(signals, Sell))
	assert.Equal(t, 200, s.Lookback(params))
}

// bollingerSeries alternates 100/101 with a dip to 90 at bar 60 and a spike
// to 115 at bar 70
func bollingerSeries() []float64 {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}
	closes[60] = 90
	closes[70] = 115
	return closes
}

func TestBollingerSignals(t *testing.T) {
	s, params := bind(t, models.StrategyBollinger, nil)

	signals := s.Signals(bollingerSeries(), params)
	assert.Equal(t, []int{60}, signalIndexes(signals, Buy))
	assert.Equal(t, []int{70}, signalIndexes(signals, Sell))
}

func TestLookback(t *testing.T) {
	r := NewRegistry()

	rsi, params, err := r.Bind(models.StrategyRSI, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, rsi.Lookback(params))

	bb, params, err := r.Bind(models.StrategyBollinger, models.Parameters{"period": 30})
	require.NoError(t, err)
	assert.Equal(t, 30, bb.Lookback(params))
}

func TestCrossingHelpers(t *testing.T) {
	assert.True(t, crossedBelow(31, 29, 30, 30))
	assert.True(t, crossedBelow(30, 29.9, 30, 30))
	assert.False(t, crossedBelow(29, 28, 30, 30))
	assert.True(t, crossedAbove(69, 71, 70, 70))
	assert.False(t, crossedAbove(71, 72, 70, 70))
	assert.False(t, crossedAbove(100, 100, 100, 100))
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "buy", Buy.String())
	assert.Equal(t, "sell", Sell.String())
	assert.Equal(t, "hold", Hold.String())
}
