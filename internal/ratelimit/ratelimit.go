// Package ratelimit throttles the /api/v1 analyze endpoints per client IP.
// Analyzing a transcript parses the whole upload, so a single client can
// otherwise keep the server busy with back-to-back requests.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether the client identified by key may start
// another analysis. The api package only depends on this interface.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	AllowN(ctx context.Context, key string, n int) bool
}

// clientBucket is the token bucket of one client plus the time it was last
// consulted, stored as Unix nanoseconds.
type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// InMemoryRateLimiter gives every client IP its own token bucket in process
// memory. A serve instance runs alone, so nothing is shared between
// processes. Clients idle for longer than idleTimeout are forgotten by a
// background sweep.
type InMemoryRateLimiter struct {
	rate  rate.Limit
	burst int

	clients sync.Map // client key -> *clientBucket

	sweepInterval time.Duration
	idleTimeout   time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewInMemoryRateLimiter allows each client rps analyses per second with
// bursts of up to burst. Callers must Stop it when the server shuts down.
func NewInMemoryRateLimiter(rps float64, burst int) *InMemoryRateLimiter {
	l := &InMemoryRateLimiter{
		rate:          rate.Limit(rps),
		burst:         burst,
		sweepInterval: 5 * time.Minute,
		idleTimeout:   10 * time.Minute,
		stop:          make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow reports whether the client may send one more request now.
func (l *InMemoryRateLimiter) Allow(ctx context.Context, key string) bool {
	return l.AllowN(ctx, key, 1)
}

// AllowN reports whether the client may send n more requests now, taking n
// tokens from its bucket if so.
func (l *InMemoryRateLimiter) AllowN(ctx context.Context, key string, n int) bool {
	now := time.Now().UTC()
	bucket := l.bucket(key)
	bucket.lastSeen.Store(now.UnixNano())
	return bucket.limiter.AllowN(now, n)
}

func (l *InMemoryRateLimiter) bucket(key string) *clientBucket {
	if b, ok := l.clients.Load(key); ok {
		return b.(*clientBucket)
	}
	actual, _ := l.clients.LoadOrStore(key, &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)})
	return actual.(*clientBucket)
}

func (l *InMemoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.forgetIdleClients(time.Now().UTC())
		case <-l.stop:
			return
		}
	}
}

// forgetIdleClients drops the buckets of clients not seen since
// now-idleTimeout and returns how many were dropped. A returning client
// starts again with a full burst.
func (l *InMemoryRateLimiter) forgetIdleClients(now time.Time) int {
	cutoff := now.Add(-l.idleTimeout).UnixNano()
	dropped := 0
	l.clients.Range(func(key, value interface{}) bool {
		if value.(*clientBucket).lastSeen.Load() < cutoff {
			l.clients.Delete(key)
			dropped++
		}
		return true
	})
	return dropped
}

// Stop ends the idle sweep. It may be called more than once.
func (l *InMemoryRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Stats describes the limiter for status logging.
type Stats struct {
	ActiveClients int     `json:"active_clients"`
	RatePerSecond float64 `json:"rate_per_second"`
	Burst         int     `json:"burst"`
}

// Stats counts the clients currently tracked.
func (l *InMemoryRateLimiter) Stats() Stats {
	stats := Stats{RatePerSecond: float64(l.rate), Burst: l.burst}
	l.clients.Range(func(_, _ interface{}) bool {
		stats.ActiveClients++
		return true
	})
	return stats
}
