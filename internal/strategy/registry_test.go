package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

func TestRegistryDefinitions(t *testing.T) {
	r := NewRegistry()

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, models.StrategyRSI, defs[0].ID)
	assert.Equal(t, models.StrategyMACrossover, defs[1].ID)
	assert.Equal(t, models.StrategyBollinger, defs[2].ID)
}

func TestRegistryUnknownStrategy(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("Contains RSI")
	assert.ErrorIs(t, err, models.ErrUnknownStrategy)

	_, _, err = r.Bind("macd", nil)
	assert.ErrorIs(t, err, models.ErrUnknownStrategy)
}

func TestBindFillsDefaults(t *testing.T) {
	r := NewRegistry()

	_, params, err := r.Bind(models.StrategyRSI, models.Parameters{"period": 21})
	require.NoError(t, err)
	assert.Equal(t, models.Parameters{"period": 21, "oversold": 30, "overbought": 70}, params)
}

func TestBindDoesNotMutateInput(t *testing.T) {
	r := NewRegistry()
	in := models.Parameters{"period": 10}

	_, _, err := r.Bind(models.StrategyBollinger, in)
	require.NoError(t, err)
	assert.Len(t, in, 1)
}

func TestBindInvalidParameters(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name      string
		id        models.StrategyID
		params    models.Parameters
		parameter string
	}{
		{"unknown name", models.StrategyRSI, models.Parameters{"length": 14}, "length"},
		{"below min", models.StrategyRSI, models.Parameters{"period": 1}, "period"},
		{"above max", models.StrategyBollinger, models.Parameters{"std_dev": 7}, "std_dev"},
		{"fractional period", models.StrategyMACrossover, models.Parameters{"fast_period": 10.5}, "fast_period"},
		{"not finite", models.StrategyRSI, models.Parameters{"oversold": math.NaN()}, "oversold"},
		{"fast not below slow", models.StrategyMACrossover, models.Parameters{"fast_period": 60, "slow_period": 50}, "fast_period"},
		{"oversold above overbought", models.StrategyRSI, models.Parameters{"oversold": 50, "overbought": 50}, "oversold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := r.Bind(tt.id, tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidParameters)

			var perr *models.InvalidParametersError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.parameter, perr.Parameter)
		})
	}
}

func TestBindBoundaryValues(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Bind(models.StrategyMACrossover, models.Parameters{"fast_period": 50, "slow_period": 200})
	assert.NoError(t, err)

	_, _, err = r.Bind(models.StrategyRSI, models.Parameters{"period": 100, "oversold": 1, "overbought": 99})
	assert.NoError(t, err)
}
