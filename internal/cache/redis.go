package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/cryptodash-backtest/internal/config"
	"github.com/yourusername/cryptodash-backtest/internal/models"
)

const defaultKeyPrefix = "cryptodash:backtest:"

// RedisCache shares results between processes through redis
type RedisCache struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisCache connects to the configured redis instance
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout(),
		ReadTimeout:  cfg.Timeout(),
		WriteTimeout: cfg.Timeout(),
	})
	return NewRedisCacheFromClient(client, cfg.KeyPrefix, cfg.Timeout()), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, prefix string, timeout time.Duration) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if timeout <= 0 {
		timeout = time.Second
	}
	return &RedisCache{client: client, prefix: prefix, timeout: timeout}
}

// Get retrieves a cached result
func (r *RedisCache) Get(ctx context.Context, key string) (models.BacktestResult, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.BacktestResult{}, false, nil
	}
	if err != nil {
		return models.BacktestResult{}, false, unavailable("get", err)
	}

	var result models.BacktestResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// a corrupt entry behaves like a miss and is overwritten by the next put
		return models.BacktestResult{}, false, nil
	}
	return result, true, nil
}

// Put stores result with the given ttl
func (r *RedisCache) Put(ctx context.Context, key string, result models.BacktestResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Ping checks redis connectivity
func (r *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the redis client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
