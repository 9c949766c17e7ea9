package cache

import (
	"context"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

// MemoryCache keeps results in process memory
type MemoryCache struct {
	cache     *gocache.Cache
	ttl       time.Duration
	maxSize   int
	hitCount  atomic.Uint64
	missCount atomic.Uint64
	dropped   atomic.Uint64
}

// NewMemoryCache creates a new in-memory result cache
func NewMemoryCache(ttl time.Duration, maxSize int) *MemoryCache {
	return &MemoryCache{
		cache:   gocache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result
func (m *MemoryCache) Get(_ context.Context, key string) (models.BacktestResult, bool, error) {
	if v, found := m.cache.Get(key); found {
		if result, ok := v.(models.BacktestResult); ok {
			m.hitCount.Add(1)
			result.Parameters = result.Parameters.Clone()
			return result, true, nil
		}
	}
	m.missCount.Add(1)
	return models.BacktestResult{}, false, nil
}

// Put stores a copy of result. A non-positive ttl uses the cache default.
// Once maxSize live entries are held, new keys are dropped until some
// expire; existing keys are still refreshed.
func (m *MemoryCache) Put(_ context.Context, key string, result models.BacktestResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.ttl
	}
	if m.maxSize > 0 && m.cache.ItemCount() >= m.maxSize {
		m.cache.DeleteExpired()
		if _, exists := m.cache.Get(key); !exists && m.cache.ItemCount() >= m.maxSize {
			m.dropped.Add(1)
			return nil
		}
	}
	result.Parameters = result.Parameters.Clone()
	m.cache.Set(key, result, ttl)
	return nil
}

// Ping always succeeds
func (m *MemoryCache) Ping(context.Context) error { return nil }

// Close flushes the cache
func (m *MemoryCache) Close() error {
	m.cache.Flush()
	return nil
}

// Stats returns cache statistics
func (m *MemoryCache) Stats() Stats {
	s := Stats{
		Hits:    m.hitCount.Load(),
		Misses:  m.missCount.Load(),
		Items:   m.cache.ItemCount(),
		Dropped: m.dropped.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.Ratio = float64(s.Hits) / float64(total)
	}
	return s
}
