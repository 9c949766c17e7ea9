package models

import "time"

// PricePoint is a single OHLCV bar for an instrument at a given interval
type PricePoint struct {
	InstrumentID int64     `db:"instrument_id" json:"instrument_id"`
	Time         time.Time `db:"time" json:"time"`
	Open         float64   `db:"open" json:"open"`
	High         float64   `db:"high" json:"high"`
	Low          float64   `db:"low" json:"low"`
	Close        float64   `db:"close" json:"close"`
	Volume       float64   `db:"volume" json:"volume"`
	Interval     string    `db:"interval" json:"interval"`
}

// Closes extracts the close price series from points
func Closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		out[i] = points[i].Close
	}
	return out
}
