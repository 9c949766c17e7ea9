package backtest

import (
	"time"
)

// Trade is a completed round trip
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`
	// Forced marks a position closed at the end of the range
	Forced bool `json:"forced"`
}

// Won reports whether the trade made money; break-even counts as a loss
func (t Trade) Won() bool { return t.PnL > 0 }

// PortfolioState tracks the all-in, long-only simulated account
type PortfolioState struct {
	Cash        float64
	Units       float64
	PeakEquity  float64
	Trades      []Trade
	EquityCurve EquityCurve

	entryTime  time.Time
	entryPrice float64
	entryCost  float64
}

// NewPortfolioState starts entirely in cash
func NewPortfolioState(initialCapital float64) *PortfolioState {
	return &PortfolioState{
		Cash:       initialCapital,
		PeakEquity: initialCapital,
	}
}

// Long reports whether a position is open
func (s *PortfolioState) Long() bool { return s.Units > 0 }

// Buy converts all cash into the instrument at price. It is a no-op while long.
func (s *PortfolioState) Buy(t time.Time, price float64) bool {
	if s.Long() || price <= 0 || s.Cash <= 0 {
		return false
	}
	s.entryTime, s.entryPrice, s.entryCost = t, price, s.Cash
	s.Units = s.Cash / price
	s.Cash = 0
	return true
}

// Sell converts the whole position to cash at price. It is a no-op while flat.
func (s *PortfolioState) Sell(t time.Time, price float64, forced bool) bool {
	if !s.Long() {
		return false
	}
	proceeds := s.Units * price
	s.Trades = append(s.Trades, Trade{
		EntryTime:  s.entryTime,
		ExitTime:   t,
		EntryPrice: s.entryPrice,
		ExitPrice:  price,
		PnL:        proceeds - s.entryCost,
		Forced:     forced,
	})
	s.Cash = proceeds
	s.Units = 0
	return true
}

// Equity marks the account to market at price
func (s *PortfolioState) Equity(price float64) float64 {
	return s.Cash + s.Units*price
}

// RecordEquityPoint adds an equity point to the curve
func (s *PortfolioState) RecordEquityPoint(t time.Time, value float64) {
	if value > s.PeakEquity {
		s.PeakEquity = value
	}
	drawdown := 0.0
	if s.PeakEquity > 0 {
		drawdown = value/s.PeakEquity - 1
	}
	s.EquityCurve = append(s.EquityCurve, EquityPoint{Time: t, Value: value, Drawdown: drawdown})
}
