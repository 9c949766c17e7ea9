// Package marketdata reads instrument catalogues and OHLCV series from the
// time-series store on behalf of the backtest evaluator.
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/cryptodash-backtest/internal/models"
	"github.com/yourusername/cryptodash-backtest/internal/repository"
)

// Accessor is the read-only gateway to instruments and price points
type Accessor struct {
	instruments repository.InstrumentRepository
	prices      repository.PriceRepository
	intervals   map[string]struct{}
}

// NewAccessor creates an accessor serving the given candle intervals
func NewAccessor(instruments repository.InstrumentRepository, prices repository.PriceRepository, supportedIntervals []string) *Accessor {
	intervals := make(map[string]struct{}, len(supportedIntervals))
	for _, iv := range supportedIntervals {
		intervals[iv] = struct{}{}
	}
	return &Accessor{
		instruments: instruments,
		prices:      prices,
		intervals:   intervals,
	}
}

// SupportsInterval reports whether interval can be fetched
func (a *Accessor) SupportsInterval(interval string) bool {
	_, ok := a.intervals[interval]
	return ok
}

// Eligible lists the active instruments with sufficient history.
// Any failure means the store is unreachable for the whole batch.
func (a *Accessor) Eligible(ctx context.Context) ([]*models.Instrument, error) {
	instruments, err := a.instruments.ListEligible(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list eligible instruments", Err: err}
	}

	out := instruments[:0]
	for _, inst := range instruments {
		if inst != nil && inst.Eligible() {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Fetch returns the bars of instrumentID within the closed range [start, end],
// ascending by time. Zero bounds mean the full available history. An empty
// slice is returned, without error, when no bars fall in range.
func (a *Accessor) Fetch(ctx context.Context, instrumentID int64, interval string, start, end time.Time) ([]models.PricePoint, error) {
	if !a.SupportsInterval(interval) {
		return nil, &models.DataUnavailableError{InstrumentID: instrumentID, Reason: "unsupported interval " + interval}
	}

	inst, err := a.instruments.GetByID(ctx, instrumentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.DataUnavailableError{InstrumentID: instrumentID, Reason: "unknown instrument"}
		}
		return nil, &models.StoreError{Op: "get instrument", Err: err}
	}
	if !inst.Active {
		return nil, &models.DataUnavailableError{InstrumentID: instrumentID, Reason: "instrument inactive"}
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return []models.PricePoint{}, nil
	}

	points, err := a.prices.GetRange(ctx, instrumentID, interval, start, end)
	if err != nil {
		return nil, &models.StoreError{Op: "fetch price points", Err: err}
	}
	if points == nil {
		points = []models.PricePoint{}
	}
	return points, nil
}
