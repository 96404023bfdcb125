package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per key, typically a client IP.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*entry
	capacity int
	refill   rate.Limit
	idle     time.Duration
	swept    time.Time
	now      func() time.Time
}

// New creates a keyed limiter. capacity is the burst size and refillPerSec the
// steady-state rate. Buckets idle for longer than idle are dropped on Sweep.
func New(capacity, refillPerSec float64, idle time.Duration) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Limiter{
		m:        make(map[string]*entry),
		capacity: int(capacity),
		refill:   rate.Limit(refillPerSec),
		idle:     idle,
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	if now.Sub(l.swept) >= l.idle {
		l.sweepLocked(now)
	}
	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = e
	}
	e.seen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Sweep removes buckets not used since the idle cutoff and returns how many.
// Allow also sweeps once per idle period.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.now())
}

func (l *Limiter) sweepLocked(now time.Time) int {
	l.swept = now
	cutoff := now.Add(-l.idle)
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
