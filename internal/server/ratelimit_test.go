package server

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimiterConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 60,
		BurstSize:         3,
		GlobalLimit:       100,
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.NoError(t, rl.Allow("client-a"), "request %d within burst", i+1)
	}

	err := rl.Allow("client-a")
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "client", rle.Scope)
	assert.Greater(t, rle.RetryAfter, time.Duration(0))
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow("client-a"))
	}
	assert.Error(t, rl.Allow("client-a"))
	assert.NoError(t, rl.Allow("client-b"), "other clients are unaffected")
}

func TestRateLimiterGlobalCap(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.GlobalLimit = 2
	cfg.BurstSize = 10
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	require.NoError(t, rl.Allow("a"))
	require.NoError(t, rl.Allow("b"))

	err := rl.Allow("c")
	require.Error(t, err)

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "global", rle.Scope)
}

func TestRateLimiterRefill(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.RequestsPerMinute = 6000 // 100 per second, refills fast enough to test
	cfg.BurstSize = 1
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	require.NoError(t, rl.Allow("client"))
	require.Error(t, rl.Allow("client"))

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, rl.Allow("client"), "tokens refill over time")
}

func TestRateLimiterIdleCleanup(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()

	require.NoError(t, rl.Allow("stale"))
	rl.mu.Lock()
	rl.clients["stale"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.removeIdleClients(10 * time.Minute)

	rl.mu.Lock()
	_, exists := rl.clients["stale"]
	rl.mu.Unlock()
	assert.False(t, exists)
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &RateLimitError{Scope: "client", RetryAfter: 3 * time.Second}
	assert.Contains(t, err.Error(), "client")
	assert.True(t, errors.As(error(err), new(*RateLimitError)))
}
