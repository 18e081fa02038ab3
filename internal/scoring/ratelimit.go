package scoring

import (
	"sync"
	"time"
)

// rateLimiter implements a token bucket rate limiter for outbound calls to
// the remote endpoint.
type rateLimiter struct {
	rate     float64 // tokens per second
	burst    int
	tokens   float64
	lastTime time.Time
	mu       sync.Mutex
}

func newRateLimiter(requestsPerMin, burstSize int) *rateLimiter {
	rate := float64(requestsPerMin) / 60.0
	return &rateLimiter{
		rate:     rate,
		burst:    burstSize,
		tokens:   float64(burstSize),
		lastTime: time.Now(),
	}
}

func (r *rateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	// Add tokens based on elapsed time
	r.tokens += elapsed * r.rate
	if r.tokens > float64(r.burst) {
		r.tokens = float64(r.burst)
	}

	// Check if we have a token
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}
