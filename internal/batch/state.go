package batch

import (
	"sync"
	"time"
)

// RunState is the lifecycle of a batch run
type RunState string

// Run states
const (
	RunPending  RunState = "pending"
	RunRunning  RunState = "running"
	RunFinished RunState = "finished"
)

// InstrumentState is the lifecycle of one instrument within a run
type InstrumentState string

// Instrument states
const (
	InstrumentQueued    InstrumentState = "queued"
	InstrumentExecuting InstrumentState = "executing"
	InstrumentCompleted InstrumentState = "completed"
	InstrumentFailed    InstrumentState = "failed"
)

// Snapshot is a point-in-time view of a run
type Snapshot struct {
	RunID       string                    `json:"run_id"`
	State       RunState                  `json:"state"`
	Cancelled   bool                      `json:"cancelled"`
	Aborted     bool                      `json:"aborted"`
	Total       int                       `json:"total"`
	Succeeded   int                       `json:"succeeded"`
	Failed      int                       `json:"failed"`
	StartedAt   time.Time                 `json:"started_at"`
	FinishedAt  time.Time                 `json:"finished_at,omitempty"`
	Instruments map[int64]InstrumentState `json:"instruments"`
}

type runTracker struct {
	mu   sync.Mutex
	snap Snapshot
}

func newRunTracker(runID string, instrumentIDs []int64) *runTracker {
	states := make(map[int64]InstrumentState, len(instrumentIDs))
	for _, id := range instrumentIDs {
		states[id] = InstrumentQueued
	}
	return &runTracker{snap: Snapshot{
		RunID:       runID,
		State:       RunPending,
		Total:       len(instrumentIDs),
		Instruments: states,
	}}
}

func (t *runTracker) start(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.State = RunRunning
	t.snap.StartedAt = now
}

func (t *runTracker) executing(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Instruments[id] = InstrumentExecuting
}

func (t *runTracker) settle(id int64, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if failed {
		t.snap.Instruments[id] = InstrumentFailed
		t.snap.Failed++
		return
	}
	t.snap.Instruments[id] = InstrumentCompleted
	t.snap.Succeeded++
}

func (t *runTracker) finish(now time.Time, cancelled, aborted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.State = RunFinished
	t.snap.Cancelled = cancelled
	t.snap.Aborted = aborted
	t.snap.FinishedAt = now
}

func (t *runTracker) snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.snap
	out.Instruments = make(map[int64]InstrumentState, len(t.snap.Instruments))
	for id, s := range t.snap.Instruments {
		out.Instruments[id] = s
	}
	return out
}
