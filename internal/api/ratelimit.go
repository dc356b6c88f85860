package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxClients bounds how many clients are tracked at once; the least recently
// seen are forgotten first.
const maxClients = 4096

// RateLimiter allows maxRate requests per client per window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *expirable.LRU[string, *bucket]
	maxRate int
	window  time.Duration
}

type bucket struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a rate limiter allowing maxRate requests per window.
// Idle clients expire after one window.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: expirable.NewLRU[string, *bucket](maxClients, nil, window),
		maxRate: maxRate,
		window:  window,
	}
}

// Allow reports whether the client may make another request now.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets.Get(client)
	if !ok || now.Sub(b.lastReset) >= rl.window {
		rl.buckets.Add(client, &bucket{tokens: rl.maxRate - 1, lastReset: now})
		return true
	}
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// RetryAfter returns how many seconds until the client's window resets.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets.Peek(client)
	if !ok {
		return 0
	}
	remaining := rl.window - time.Since(b.lastReset)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// clientOf identifies the caller, preferring the first X-Forwarded-For hop.
func clientOf(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientOf(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
