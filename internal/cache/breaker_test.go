package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cryptodash-backtest/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBreakerOverMiniredis(t *testing.T) (*Breaker, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker(NewRedisCacheFromClient(client, "test:", 200*time.Millisecond), BreakerConfig{
		MaxFailures:    2,
		FailureWindow:  time.Minute,
		CooldownPeriod: 30 * time.Second,
	}, nil)
	b.now = clock.now
	return b, mr, clock
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	b, mr, _ := newBreakerOverMiniredis(t)

	require.NoError(t, b.Put(ctx, "k", sampleResult(), time.Minute))
	assert.Equal(t, CircuitClosed, b.State())

	mr.SetError("ERR backend down")
	_, _, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, models.ErrCacheUnavailable)
	assert.Equal(t, CircuitClosed, b.State())

	_, _, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, models.ErrCacheUnavailable)
	assert.Equal(t, CircuitOpen, b.State())

	// open circuit fails fast even once the backend recovers
	mr.SetError("")
	_, found, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, models.ErrCacheUnavailable)
	assert.False(t, found)
	assert.ErrorIs(t, b.Put(ctx, "k", sampleResult(), time.Minute), models.ErrCacheUnavailable)
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	ctx := context.Background()
	b, mr, clock := newBreakerOverMiniredis(t)
	require.NoError(t, b.Put(ctx, "k", sampleResult(), time.Hour))

	mr.SetError("ERR backend down")
	_, _, _ = b.Get(ctx, "k")
	_, _, _ = b.Get(ctx, "k")
	require.Equal(t, CircuitOpen, b.State())

	// a failed trial request reopens the circuit
	clock.advance(31 * time.Second)
	_, _, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, models.ErrCacheUnavailable)
	assert.Equal(t, CircuitOpen, b.State())

	mr.SetError("")
	clock.advance(31 * time.Second)
	got, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), got.InstrumentID)
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreakerFailuresOutsideWindowDoNotOpen(t *testing.T) {
	ctx := context.Background()
	b, mr, clock := newBreakerOverMiniredis(t)

	mr.SetError("ERR backend down")
	_, _, _ = b.Get(ctx, "k")
	clock.advance(2 * time.Minute)
	_, _, _ = b.Get(ctx, "k")
	assert.Equal(t, CircuitClosed, b.State())
}

func TestBreakerPingResets(t *testing.T) {
	ctx := context.Background()
	b, mr, _ := newBreakerOverMiniredis(t)

	mr.SetError("ERR backend down")
	_, _, _ = b.Get(ctx, "k")
	_, _, _ = b.Get(ctx, "k")
	require.Equal(t, CircuitOpen, b.State())

	mr.SetError("")
	require.NoError(t, b.Ping(ctx))
	assert.Equal(t, CircuitClosed, b.State())
	assert.Equal(t, "CLOSED", b.State().String())
}

func TestBreakerDisabled(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	b := NewBreaker(NewRedisCacheFromClient(client, "test:", time.Second), BreakerConfig{}, nil)

	mr.SetError("ERR backend down")
	for i := 0; i < 5; i++ {
		_, _, err := b.Get(ctx, "k")
		assert.ErrorIs(t, err, models.ErrCacheUnavailable)
	}
	assert.Equal(t, CircuitClosed, b.State())
}
