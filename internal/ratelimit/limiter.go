// SPDX-License-Identifier: MIT

// Package ratelimit throttles mutating session requests per client with a
// token bucket.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ManuGH/academy/internal/control/http/problem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitExceeded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "academy",
		Name:      "ratelimit_exceeded_total",
		Help:      "Total rate limit rejections",
	},
	[]string{"limit_type"},
)

// Config holds rate limiting configuration
type Config struct {
	// Per-client write limits
	PerClientRate  rate.Limit // requests per second
	PerClientBurst int

	// Idle client buckets older than this are dropped.
	IdleTTL time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		PerClientRate:  10,
		PerClientBurst: 20,
		IdleTTL:        5 * time.Minute,
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	config Config
	now    func() time.Time

	mu          sync.Mutex
	clients     map[string]*bucket
	lastCleanup time.Time
}

// New creates a new rate limiter with the given config
func New(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}
	return &Limiter{
		config:      config,
		now:         time.Now,
		clients:     make(map[string]*bucket),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether the client may issue another write now.
func (l *Limiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	b, ok := l.clients[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.config.PerClientRate, l.config.PerClientBurst)}
		l.clients[client] = b
	}
	b.lastSeen = now
	l.maybeCleanupLocked(now)
	l.mu.Unlock()

	if !b.limiter.AllowN(now, 1) {
		rateLimitExceeded.WithLabelValues("per_client").Inc()
		return false
	}
	return true
}

// maybeCleanupLocked drops buckets that have been idle longer than IdleTTL.
func (l *Limiter) maybeCleanupLocked(now time.Time) {
	if now.Sub(l.lastCleanup) < l.config.IdleTTL {
		return
	}
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) >= l.config.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastCleanup = now
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects requests from clients over their write budget with 429.
// keyFunc maps a request to its client key.
func (l *Limiter) Middleware(keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	retryAfter := "1"
	if l.config.PerClientRate > 0 {
		retryAfter = strconv.Itoa(max(1, int(1/float64(l.config.PerClientRate)+0.999)))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(keyFunc(r)) {
				w.Header().Set("Retry-After", retryAfter)
				problem.Write(w, r, http.StatusTooManyRequests, "http/rate-limited", "Too Many Requests", "RATE_LIMITED",
					"Too many write requests. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
