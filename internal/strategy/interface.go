// Package strategy holds the technical strategies available to batch runs,
// keyed by stable identifiers.
package strategy

import (
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// Signal is the action a strategy requests on a bar
type Signal int8

const (
	// Hold leaves the position unchanged
	Hold Signal = iota
	// Buy converts all cash into the instrument
	Buy
	// Sell converts the whole position back to cash
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Strategy turns a close price series into per-bar signals.
//
// Signals are market events: a strategy reports every crossing it sees and
// the portfolio simulation ignores buys while long and sells while flat.
type Strategy interface {
	Definition() models.StrategyDefinition
	// Check validates relationships between already range-checked parameters.
	Check(params models.Parameters) error
	// Lookback is the number of bars needed before the first indicator value.
	Lookback(params models.Parameters) int
	// Signals returns one signal per bar; bars without indicator values hold.
	Signals(closes []float64, params models.Parameters) []Signal
}
