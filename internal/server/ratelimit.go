package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimitError reports a rejected request with the scope that tripped
// ("client" or "global") and how long the caller should wait.
type RateLimitError struct {
	Scope      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s), retry after %s", e.Scope, e.RetryAfter.Round(time.Second))
}

type clientBucket struct {
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// RateLimiter applies a per-client token bucket plus a global
// requests-per-minute cap.
type RateLimiter struct {
	config RateLimitConfig

	mu          sync.Mutex
	clients     map[string]*clientBucket
	globalCount int
	windowStart time.Time

	stopCleanup chan struct{}
}

// NewRateLimiter creates a limiter and starts its idle-client janitor.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:      cfg,
		clients:     make(map[string]*clientBucket),
		windowStart: time.Now(),
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow consumes one request slot for the client, returning a RateLimitError
// when either the client bucket or the global window is exhausted.
func (rl *RateLimiter) Allow(clientID string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Global cap over a rolling one-minute window.
	if rl.config.GlobalLimit > 0 {
		if now.Sub(rl.windowStart) >= time.Minute {
			rl.windowStart = now
			rl.globalCount = 0
		}
		if rl.globalCount >= rl.config.GlobalLimit {
			return &RateLimitError{
				Scope:      "global",
				RetryAfter: time.Minute - now.Sub(rl.windowStart),
			}
		}
	}

	bucket, ok := rl.clients[clientID]
	if !ok {
		bucket = &clientBucket{
			tokens:     float64(rl.config.BurstSize),
			lastRefill: now,
		}
		rl.clients[clientID] = bucket
	}

	refillRate := float64(rl.config.RequestsPerMinute) / 60.0
	bucket.tokens += now.Sub(bucket.lastRefill).Seconds() * refillRate
	if limit := float64(rl.config.BurstSize); bucket.tokens > limit {
		bucket.tokens = limit
	}
	bucket.lastRefill = now
	bucket.lastSeen = now

	if bucket.tokens < 1 {
		wait := time.Duration((1 - bucket.tokens) / refillRate * float64(time.Second))
		return &RateLimitError{Scope: "client", RetryAfter: wait}
	}

	bucket.tokens--
	rl.globalCount++
	return nil
}

// Stop terminates the janitor goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.removeIdleClients(10 * time.Minute)
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) removeIdleClients(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	for id, bucket := range rl.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(rl.clients, id)
		}
	}
}
