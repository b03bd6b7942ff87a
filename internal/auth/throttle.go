package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const minThrottleSweep = 1024

// Throttle limits login attempts per key with a token bucket.
//
// A bucket that has refilled to its full burst is indistinguishable from a new one, so it is dropped. Drops happen
// in [Throttle.Sweep] and automatically whenever the number of tracked keys doubles.
type Throttle struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	every     time.Duration
	burst     int
	nextSweep int
}

// NewThrottle allows burst attempts per key, refilling one every interval.
// A zero burst disables throttling.
func NewThrottle(burst int, interval time.Duration) *Throttle {
	return &Throttle{
		limiters:  map[string]*rate.Limiter{},
		every:     interval,
		burst:     burst,
		nextSweep: minThrottleSweep,
	}
}

// Allow consumes one attempt for key and reports whether it was permitted.
func (t *Throttle) Allow(key string) bool {
	if t == nil || t.burst <= 0 {
		return true
	}

	t.mu.Lock()
	limiter, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) >= t.nextSweep {
			t.sweepLocked()
			t.nextSweep = max(2*len(t.limiters), minThrottleSweep)
		}
		limiter = rate.NewLimiter(rate.Every(t.every), t.burst)
		t.limiters[key] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}

// Reset forgets the bucket for key, restoring the full burst.
func (t *Throttle) Reset(key string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.limiters, key)
	t.mu.Unlock()
}

// Sweep drops every bucket that has refilled and returns how many were removed.
func (t *Throttle) Sweep() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked()
}

// Len returns the number of tracked keys.
func (t *Throttle) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

// RunSweeper calls [Throttle.Sweep] every interval until ctx is done.
func (t *Throttle) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

func (t *Throttle) sweepLocked() int {
	full := float64(t.burst)
	removed := 0
	for key, limiter := range t.limiters {
		if limiter.Tokens() >= full {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}
