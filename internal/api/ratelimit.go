package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter tracks one token bucket per client IP. Idle entries are swept
// periodically so the map does not grow without bound.
type ipLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipEntry
	rate       rate.Limit
	burst      int
	trustProxy bool
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(r rate.Limit, burst int, trustProxy bool) *ipLimiter {
	return &ipLimiter{
		limiters:   make(map[string]*ipEntry),
		rate:       r,
		burst:      burst,
		trustProxy: trustProxy,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// sweep drops entries idle for longer than maxIdle.
func (l *ipLimiter) sweep(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// rateLimitMiddleware applies a per-IP token bucket. Rejected requests get
// a 429 with the standard error envelope.
func rateLimitMiddleware(limiter *ipLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, limiter.trustProxy)
			if !limiter.allow(ip) {
				logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeError(w, logger, http.StatusTooManyRequests,
					"rate_limited", "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// startSweeper runs periodic idle-entry cleanup until stop is closed.
func (l *ipLimiter) startSweeper(interval, maxIdle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep(maxIdle)
			case <-stop:
				return
			}
		}
	}()
}
