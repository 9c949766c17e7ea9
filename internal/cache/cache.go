// Package cache stores computed backtest results keyed by their inputs.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

const (
	// BackendMemory keeps results in process
	BackendMemory = "memory"
	// BackendRedis shares results between server instances
	BackendRedis = "redis"
)

// ResultCache is a TTL-bounded store of backtest results.
//
// A failing backend reports models.ErrCacheUnavailable; callers may treat that
// as a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (models.BacktestResult, bool, error)
	Put(ctx context.Context, key string, result models.BacktestResult, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Stats reports cache effectiveness
type Stats struct {
	Hits   uint64  `json:"hits"`
	Misses uint64  `json:"misses"`
	Items  int     `json:"items"`
	Ratio  float64 `json:"hit_ratio"`
	// Dropped counts writes refused by a full memory cache
	Dropped uint64 `json:"dropped,omitempty"`
}

// New builds the backend selected in cfg. A redis backend sits behind a
// circuit breaker unless cfg disables it.
func New(cfg *config.CacheConfig, logger *logrus.Logger) (ResultCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cache config is required")
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryCache(cfg.TTL(), cfg.MaxSize), nil
	case BackendRedis:
		rc, err := NewRedisCache(cfg.Redis)
		if err != nil {
			return nil, err
		}
		if cfg.Redis.BreakerFailures <= 0 {
			return rc, nil
		}
		return NewBreaker(rc, BreakerConfig{
			MaxFailures:    cfg.Redis.BreakerFailures,
			FailureWindow:  time.Minute,
			CooldownPeriod: time.Duration(cfg.Redis.BreakerCooldownSeconds) * time.Second,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrCacheUnavailable, op, err)
}
