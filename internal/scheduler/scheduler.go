// Package scheduler runs cache warm-up batches on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/batch"
	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/metrics"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

const defaultJobTimeout = 2 * time.Hour

// BatchStarter launches batch runs
type BatchStarter interface {
	Start(ctx context.Context, req batch.Request) (*batch.Stream, error)
}

// Scheduler manages scheduled warm-up jobs
type Scheduler struct {
	cron       *cron.Cron
	batches    BatchStarter
	logger     *logrus.Logger
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     map[string]cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(batches BatchStarter, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		batches:    batches,
		logger:     logger,
		jobIDs:     make(map[string]cron.EntryID),
		jobTimeout: defaultJobTimeout,
	}
}

// ScheduleWarmup registers a warm-up batch under its cron expression
func (s *Scheduler) ScheduleWarmup(job config.WarmupJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[job.Name]; exists {
		return fmt.Errorf("job %q is already scheduled", job.Name)
	}

	entryID, err := s.cron.AddFunc(job.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		_, _ = s.RunWarmup(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %q: %w", job.Name, err)
	}

	s.jobIDs[job.Name] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":      job.Name,
		"cron":     job.Cron,
		"strategy": job.StrategyID,
	}).Info("Scheduled cache warm-up job")
	return nil
}

// RunWarmup runs one warm-up batch to completion and returns what it produced
func (s *Scheduler) RunWarmup(ctx context.Context, job config.WarmupJob) (batch.Outcome, error) {
	log := s.logger.WithFields(logrus.Fields{"job": job.Name, "strategy": job.StrategyID})
	started := time.Now()

	stream, err := s.batches.Start(ctx, batch.Request{
		StrategyID: models.StrategyID(job.StrategyID),
		Parameters: models.Parameters(job.Parameters),
		Interval:   job.Interval,
	})
	if err != nil {
		metrics.RecordWarmupJob(job.Name, "rejected")
		log.WithError(err).Error("Cache warm-up could not start")
		return batch.Outcome{}, err
	}

	out := batch.Drain(stream, nil)
	status := "success"
	switch {
	case out.Aborted != nil:
		status = "aborted"
		log = log.WithField("reason", out.Aborted.Reason)
	case out.Complete == nil:
		status = "cancelled"
	}
	metrics.RecordWarmupJob(job.Name, status)
	log.WithFields(logrus.Fields{
		"run_id":    out.RunID,
		"succeeded": len(out.Results),
		"failed":    len(out.Errors),
		"status":    status,
		"duration":  time.Since(started).String(),
	}).Info("Cache warm-up finished")
	return out, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nextRun := time.Time{}
	if !s.isRunning {
		return nextRun
	}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Jobs returns the names of scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}
	id, ok := s.jobIDs[name]
	if !ok {
		return fmt.Errorf("job %q is not scheduled", name)
	}
	s.cron.Remove(id)
	delete(s.jobIDs, name)
	return nil
}
