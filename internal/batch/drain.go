package batch

import (
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// Outcome is everything a drained stream delivered
type Outcome struct {
	RunID    string
	Results  []models.BacktestResult
	Errors   []ErrorData
	Complete *CompleteData
	// Aborted is set when the run ended on a fatal error
	Aborted *ErrorData
	Events  int
}

// Drain consumes the stream until it closes, calling fn for every event
// when fn is not nil. The stream is finished when Drain returns.
func Drain(s *Stream, fn func(Event)) Outcome {
	out := Outcome{RunID: s.RunID()}
	for ev := range s.Events() {
		out.Events++
		if fn != nil {
			fn(ev)
		}
		switch data := ev.Data.(type) {
		case ResultData:
			out.Results = append(out.Results, data.Result)
		case ErrorData:
			if data.Fatal {
				e := data
				out.Aborted = &e
				continue
			}
			out.Errors = append(out.Errors, data)
		case CompleteData:
			c := data
			out.Complete = &c
		}
	}
	s.Wait()
	return out
}
