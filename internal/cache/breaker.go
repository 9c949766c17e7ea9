package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed passes every call to the backend
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen lets a single trial request through after cooldown
	CircuitHalfOpen
	// CircuitOpen fails calls without touching the backend
	CircuitOpen
)

// String returns string representation of circuit state
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	case CircuitOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig defines when the backend is considered down
type BreakerConfig struct {
	MaxFailures    int
	FailureWindow  time.Duration
	CooldownPeriod time.Duration
}

// Breaker wraps a remote cache and stops calling it after repeated
// unavailability, so a dead backend costs one fast miss per lookup instead
// of one timeout.
type Breaker struct {
	next   ResultCache
	config BreakerConfig
	logger *logrus.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        CircuitState
	failureCount int
	lastFailure  time.Time
	openedAt     time.Time
	probing      bool
}

// NewBreaker wraps next. A zero MaxFailures disables the breaker.
func NewBreaker(next ResultCache, config BreakerConfig, logger *logrus.Logger) *Breaker {
	if logger == nil {
		logger = logrus.New()
	}
	if config.FailureWindow <= 0 {
		config.FailureWindow = time.Minute
	}
	return &Breaker{next: next, config: config, logger: logger, now: time.Now}
}

// Get retrieves a cached result unless the circuit is open
func (b *Breaker) Get(ctx context.Context, key string) (models.BacktestResult, bool, error) {
	if err := b.allow(); err != nil {
		return models.BacktestResult{}, false, err
	}
	result, found, err := b.next.Get(ctx, key)
	b.record(err)
	return result, found, err
}

// Put stores a result unless the circuit is open
func (b *Breaker) Put(ctx context.Context, key string, result models.BacktestResult, ttl time.Duration) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := b.next.Put(ctx, key, result, ttl)
	b.record(err)
	return err
}

// Ping always reaches the backend so health checks see its real state
func (b *Breaker) Ping(ctx context.Context) error {
	err := b.next.Ping(ctx)
	if err == nil {
		b.Reset()
	}
	return err
}

// Close closes the wrapped cache
func (b *Breaker) Close() error {
	return b.next.Close()
}

// State returns the current circuit state
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset closes the circuit
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitClosed {
		b.logger.WithField("old_state", b.state.String()).Info("Cache circuit closed")
	}
	b.state = CircuitClosed
	b.failureCount = 0
	b.probing = false
}

func (b *Breaker) allow() error {
	if b.config.MaxFailures <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitOpen:
		if b.now().Sub(b.openedAt) < b.config.CooldownPeriod {
			return unavailable("breaker", errors.New("circuit open"))
		}
		b.state = CircuitHalfOpen
		b.logger.Info("Cache circuit entering half-open state after cooldown")
		fallthrough
	case CircuitHalfOpen:
		if b.probing {
			return unavailable("breaker", errors.New("trial request in flight"))
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	if b.config.MaxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !errors.Is(err, models.ErrCacheUnavailable) {
		if b.state == CircuitHalfOpen {
			b.logger.Info("Cache circuit closed after successful trial request")
		}
		b.state = CircuitClosed
		b.failureCount = 0
		b.probing = false
		return
	}

	now := b.now()
	if b.state == CircuitHalfOpen {
		b.openLocked(now, "trial request failed")
		return
	}
	if now.Sub(b.lastFailure) > b.config.FailureWindow {
		b.failureCount = 0
	}
	b.failureCount++
	b.lastFailure = now

	if b.failureCount >= b.config.MaxFailures && b.state == CircuitClosed {
		b.openLocked(now, fmt.Sprintf("%d failures within %v", b.failureCount, b.config.FailureWindow))
	}
}

func (b *Breaker) openLocked(now time.Time, reason string) {
	b.state = CircuitOpen
	b.openedAt = now
	b.probing = false

	b.logger.WithFields(logrus.Fields{
		"reason":          reason,
		"failure_count":   b.failureCount,
		"cooldown_period": b.config.CooldownPeriod,
	}).Warn("Cache circuit opened")
}
