package batch

import (
	"encoding/json"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// EventKind names an event on a batch stream
type EventKind string

// Event kinds in the order a consumer may first see them
const (
	KindStart    EventKind = "start"
	KindResult   EventKind = "result"
	KindProgress EventKind = "progress"
	KindError    EventKind = "error"
	KindComplete EventKind = "complete"
)

// Event is one message on a batch stream. Data holds the payload type that
// matches Kind.
type Event struct {
	Kind EventKind
	Data any
}

// Payload encodes the event data as JSON
func (e Event) Payload() ([]byte, error) {
	return json.Marshal(e.Data)
}

// MarshalJSON encodes the event as {"event": kind, "data": payload}
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Event EventKind `json:"event"`
		Data  any       `json:"data"`
	}{e.Kind, e.Data})
}

// StartData opens a stream
type StartData struct {
	RunID      string            `json:"run_id"`
	Total      int               `json:"total"`
	StrategyID models.StrategyID `json:"strategy_id"`
	Parameters models.Parameters `json:"parameters"`
	Interval   string            `json:"interval"`
}

// ResultData carries one instrument's result
type ResultData struct {
	InstrumentID int64                 `json:"instrument_id"`
	Symbol       string                `json:"symbol"`
	Cached       bool                  `json:"cached"`
	Result       models.BacktestResult `json:"result"`
}

// ProgressData reports settled instruments so far
type ProgressData struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// ErrorData reports one instrument that could not be evaluated. A Fatal
// error carries no instrument: it ends the run in place of complete.
type ErrorData struct {
	InstrumentID int64  `json:"instrument_id,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	Code         string `json:"code"`
	Reason       string `json:"reason"`
	Fatal        bool   `json:"fatal,omitempty"`
}

// CompleteData closes a stream that ran to the end
type CompleteData struct {
	RunID      string `json:"run_id"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}
