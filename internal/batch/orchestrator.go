// Package batch runs one strategy across every eligible instrument and
// streams results as they complete.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/backtest"
	"github.com/yourusername/cryptodash-backtest/internal/cache"
	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/logger"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// DefaultWorkers bounds concurrent evaluations and so DB connection use
const DefaultWorkers = 4

// PriceSource supplies instruments and their price history
type PriceSource interface {
	SupportsInterval(interval string) bool
	Eligible(ctx context.Context) ([]*models.Instrument, error)
	Fetch(ctx context.Context, instrumentID int64, interval string, start, end time.Time) ([]models.PricePoint, error)
}

// Recorder persists computed results
type Recorder interface {
	SaveResult(ctx context.Context, runID uuid.UUID, result *models.BacktestResult) error
}

// Config controls batch execution
type Config struct {
	Workers         int
	ProgressEvery   int
	DefaultInterval string
	CacheTTL        time.Duration
}

// ConfigFrom builds orchestrator settings from application config
func ConfigFrom(bt *config.BacktestConfig, cc *config.CacheConfig) Config {
	cfg := Config{
		Workers:         bt.Workers,
		ProgressEvery:   bt.ProgressEvery,
		DefaultInterval: bt.DefaultInterval,
	}
	if cc != nil {
		cfg.CacheTTL = cc.TTL()
	}
	return cfg
}

// Request selects the strategy and range for a batch. Zero dates leave the
// range open on that side.
type Request struct {
	StrategyID models.StrategyID `json:"strategy_id" validate:"required"`
	Parameters models.Parameters `json:"parameters"`
	Interval   string            `json:"interval,omitempty"`
	StartDate  time.Time         `json:"start_date,omitempty"`
	EndDate    time.Time         `json:"end_date,omitempty"`
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRecorder persists every computed result
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// Orchestrator fans a strategy out over instruments on a bounded worker pool
type Orchestrator struct {
	cfg       Config
	source    PriceSource
	evaluator *backtest.Evaluator
	cache     cache.ResultCache
	recorder  Recorder
	logger    *logger.BacktestLogger
}

// NewOrchestrator creates a new orchestrator. resultCache may be nil.
func NewOrchestrator(cfg Config, source PriceSource, evaluator *backtest.Evaluator, resultCache cache.ResultCache, log *logrus.Logger, opts ...Option) (*Orchestrator, error) {
	if source == nil {
		return nil, fmt.Errorf("price source is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if log == nil {
		log = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	o := &Orchestrator{
		cfg:       cfg,
		source:    source,
		evaluator: evaluator,
		cache:     resultCache,
		logger:    logger.NewBacktestLogger(log),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// plan is a validated request
type plan struct {
	runID       uuid.UUID
	strategyID  models.StrategyID
	params      models.Parameters
	interval    string
	start, end  time.Time
	instruments []*models.Instrument
}

type outcome struct {
	instrument *models.Instrument
	result     models.BacktestResult
	cached     bool
	err        error
	elapsed    time.Duration
}

// Start validates req and launches the batch. Request-level failures are
// returned here and no stream is created. Cancelling ctx stops dispatch and
// event delivery; evaluations already running still finish and populate the
// cache.
func (o *Orchestrator) Start(ctx context.Context, req Request) (*Stream, error) {
	p, err := o.prepare(ctx, req)
	if err != nil {
		metrics.RecordBatchRejected(string(req.StrategyID), models.ErrorCode(err))
		return nil, err
	}

	ids := make([]int64, len(p.instruments))
	for i, inst := range p.instruments {
		ids[i] = inst.ID
	}

	s := &Stream{
		runID:   p.runID.String(),
		events:  make(chan Event),
		done:    make(chan struct{}),
		tracker: newRunTracker(p.runID.String(), ids),
	}
	go o.coordinate(ctx, p, s)
	return s, nil
}

func (o *Orchestrator) prepare(ctx context.Context, req Request) (*plan, error) {
	_, bound, err := o.evaluator.Registry().Bind(req.StrategyID, req.Parameters)
	if err != nil {
		return nil, err
	}

	interval := req.Interval
	if interval == "" {
		interval = o.cfg.DefaultInterval
	}
	if !o.source.SupportsInterval(interval) {
		return nil, &models.InvalidParametersError{Parameter: "interval", Reason: fmt.Sprintf("unsupported interval %q", interval)}
	}

	instruments, err := o.source.Eligible(ctx)
	if err != nil {
		var storeErr *models.StoreError
		if !errors.As(err, &storeErr) {
			err = &models.StoreError{Op: "list eligible instruments", Err: err}
		}
		return nil, err
	}

	return &plan{
		runID:       uuid.New(),
		strategyID:  req.StrategyID,
		params:      bound,
		interval:    interval,
		start:       req.StartDate,
		end:         req.EndDate,
		instruments: instruments,
	}, nil
}

// coordinate is the single sequence that owns the event channel
func (o *Orchestrator) coordinate(ctx context.Context, p *plan, s *Stream) {
	started := time.Now()
	runID := p.runID.String()
	total := len(p.instruments)

	s.tracker.start(started)
	metrics.RecordBatchStarted()
	o.logger.LogBatchStarted(runID, string(p.strategyID), p.interval, total)

	// sized so a finished task never blocks on a coordinator that stopped reading
	completions := make(chan outcome, total)
	var tasks sync.WaitGroup
	dispatched := make(chan struct{})

	// runCtx stops dispatch on consumer cancel or once the store is lost
	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	cancelled := !s.send(ctx, Event{Kind: KindStart, Data: StartData{
		RunID:      runID,
		Total:      total,
		StrategyID: p.strategyID,
		Parameters: p.params,
		Interval:   p.interval,
	}})

	if cancelled {
		close(dispatched)
	} else {
		go o.dispatch(runCtx, abort, p, s.tracker, completions, &tasks, dispatched)
	}

	var storeErr error
	succeeded, failed, completed := 0, 0, 0
	emit := func(out outcome) {
		completed++
		if out.err != nil {
			failed++
			if errors.Is(out.err, models.ErrStoreUnavailable) {
				if storeErr == nil {
					storeErr = out.err
				}
				return
			}
			cancelled = !s.send(ctx, errorEvent(out))
			return
		}
		succeeded++
		cancelled = !s.send(ctx, Event{Kind: KindResult, Data: ResultData{
			InstrumentID: out.instrument.ID,
			Symbol:       out.instrument.Symbol,
			Cached:       out.cached,
			Result:       out.result,
		}})
	}

	for !cancelled && storeErr == nil && completed < total {
		select {
		case <-ctx.Done():
			cancelled = true
		case out := <-completions:
			emit(out)
			if !cancelled && storeErr == nil && (completed%o.cfg.ProgressEvery == 0 || completed == total) {
				cancelled = !s.send(ctx, Event{Kind: KindProgress, Data: ProgressData{Completed: completed, Total: total}})
			}
		}
	}

	if storeErr != nil && !cancelled {
		// report what the tasks already running produced, then end the run
		<-dispatched
		tasks.Wait()
		close(completions)
		for out := range completions {
			if cancelled {
				break
			}
			emit(out)
		}
		if !cancelled {
			s.send(ctx, Event{Kind: KindError, Data: ErrorData{
				Code:   models.CodeStoreUnavailable,
				Reason: storeErr.Error(),
				Fatal:  true,
			}})
		}
	}

	duration := time.Since(started)
	if !cancelled && storeErr == nil {
		s.send(ctx, Event{Kind: KindComplete, Data: CompleteData{
			RunID:      runID,
			Succeeded:  succeeded,
			Failed:     failed,
			DurationMS: duration.Milliseconds(),
		}})
	}

	<-dispatched
	tasks.Wait()
	close(s.events)

	aborted := storeErr != nil
	status := "completed"
	switch {
	case cancelled:
		status = "cancelled"
	case aborted:
		status = "aborted"
		o.logger.WithError(storeErr).WithField("run_id", runID).Error("Batch aborted, price store unavailable")
	}
	finishedAt := time.Now()
	s.tracker.finish(finishedAt, cancelled, aborted)
	snap := s.tracker.snapshot()
	metrics.RecordBatchFinished(string(p.strategyID), status, duration.Seconds())
	o.logger.LogBatchFinished(runID, snap.Succeeded, snap.Failed, cancelled, finishedAt.Sub(started))
	close(s.done)
}

// dispatch feeds instruments to the worker pool until done, cancelled or the
// store is lost
func (o *Orchestrator) dispatch(ctx context.Context, abort context.CancelFunc, p *plan, tracker *runTracker, completions chan<- outcome, tasks *sync.WaitGroup, dispatched chan<- struct{}) {
	defer close(dispatched)

	slots := make(chan struct{}, o.cfg.Workers)
	// in-flight evaluations outlive the consumer so their results reach the cache
	taskCtx := context.WithoutCancel(ctx)

	for _, inst := range p.instruments {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case slots <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-slots
			return
		}

		tracker.executing(inst.ID)
		tasks.Add(1)
		go func(inst *models.Instrument) {
			defer tasks.Done()
			defer func() { <-slots }()

			out := o.evaluate(taskCtx, p, inst)
			if errors.Is(out.err, models.ErrStoreUnavailable) {
				// before the slot is released, so nothing further is dispatched
				abort()
			}
			tracker.settle(inst.ID, out.err != nil)
			completions <- out
		}(inst)
	}
}

// evaluate runs one instrument: cache, then fetch, evaluate and store
func (o *Orchestrator) evaluate(ctx context.Context, p *plan, inst *models.Instrument) (out outcome) {
	started := time.Now()
	runID := p.runID.String()
	out.instrument = inst

	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("evaluation panicked: %v", r)
		}
		out.elapsed = time.Since(started)
		o.observe(runID, p, out)
	}()

	key := cache.Key(inst.ID, p.interval, p.start, p.end, p.strategyID, p.params)
	if o.cache != nil {
		result, found, err := o.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RecordCacheLookup("error")
			o.logger.LogCacheDegraded("get", err)
		case found:
			metrics.RecordCacheLookup("hit")
			result.Symbol = inst.Symbol
			out.result, out.cached = result, true
			return out
		default:
			metrics.RecordCacheLookup("miss")
		}
	}

	points, err := o.source.Fetch(ctx, inst.ID, p.interval, p.start, p.end)
	if err != nil {
		out.err = err
		return out
	}

	result, err := o.evaluator.Evaluate(points, p.strategyID, p.params)
	if err != nil {
		out.err = err
		return out
	}
	result.Symbol = inst.Symbol
	if result.Interval == "" {
		result.Interval = p.interval
	}
	result.ComputationTime = time.Since(started)
	out.result = result

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, result, o.cfg.CacheTTL); err != nil {
			metrics.RecordCacheWrite(false)
			o.logger.LogCacheDegraded("put", err)
		} else {
			metrics.RecordCacheWrite(true)
		}
	}

	if o.recorder != nil {
		if err := o.recorder.SaveResult(ctx, p.runID, &result); err != nil {
			o.logger.WithError(err).WithField("symbol", inst.Symbol).Warn("Failed to persist backtest result")
		}
	}
	return out
}

func (o *Orchestrator) observe(runID string, p *plan, out outcome) {
	if out.err != nil {
		code := models.ErrorCode(out.err)
		metrics.RecordInstrumentEvaluation(string(p.strategyID), code, out.elapsed.Seconds())
		o.logger.LogInstrumentFailed(runID, out.instrument.Symbol, code, out.err)
		return
	}
	outcomeLabel := "computed"
	if out.cached {
		outcomeLabel = "cached"
	}
	metrics.RecordInstrumentEvaluation(string(p.strategyID), outcomeLabel, out.elapsed.Seconds())
	o.logger.LogInstrumentEvaluated(runID, out.instrument.Symbol, out.cached, out.result.TradeCount, out.result.TotalReturnPct, out.elapsed)
}

func errorEvent(out outcome) Event {
	return Event{Kind: KindError, Data: ErrorData{
		InstrumentID: out.instrument.ID,
		Symbol:       out.instrument.Symbol,
		Code:         models.ErrorCode(out.err),
		Reason:       out.err.Error(),
	}}
}

// Stream is a running batch
type Stream struct {
	runID   string
	events  chan Event
	done    chan struct{}
	tracker *runTracker
}

// RunID identifies the batch
func (s *Stream) RunID() string { return s.runID }

// Events delivers events in emission order. The channel is closed once the
// run has finished, after any in-flight evaluations have settled.
func (s *Stream) Events() <-chan Event { return s.events }

// Wait blocks until the run has fully finished
func (s *Stream) Wait() { <-s.done }

// Snapshot returns the current run state
func (s *Stream) Snapshot() Snapshot { return s.tracker.snapshot() }

// send delivers ev unless ctx is done; it reports whether ev was delivered
func (s *Stream) send(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
