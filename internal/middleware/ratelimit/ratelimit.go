// Package ratelimit implements a per-client fixed-window request limiter.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultLimit = 60
	idleTTL      = 10 * time.Minute
)

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerMinute is the number of requests a client may make per window.
	RequestsPerMinute int
	// Window defaults to one minute.
	Window time.Duration
	// Hits, when set, counts rejected requests.
	Hits prometheus.Counter
}

type window struct {
	start time.Time
	seen  time.Time
	count int
}

// Limiter tracks one window per client. Clients idle for longer than ten
// minutes are pruned lazily, at most once per window, so no goroutine is
// needed.
type Limiter struct {
	limit  int
	window time.Duration
	hits   prometheus.Counter
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*window
	lastPrune time.Time
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = defaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		limit:   cfg.RequestsPerMinute,
		window:  cfg.Window,
		hits:    cfg.Hits,
		now:     time.Now,
		clients: make(map[string]*window),
	}
}

// Allow reports whether a request from client fits its window. When it does
// not, wait is the time until the window resets.
func (l *Limiter) Allow(client string) (ok bool, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) >= l.window {
		l.pruneLocked(now)
	}

	w, exists := l.clients[client]
	if !exists || now.Sub(w.start) >= l.window {
		l.clients[client] = &window{start: now, seen: now, count: 1}
		return true, 0
	}

	w.seen = now
	w.count++
	if w.count <= l.limit {
		return true, 0
	}
	return false, w.start.Add(l.window).Sub(now)
}

func (l *Limiter) pruneLocked(now time.Time) int {
	l.lastPrune = now
	removed := 0
	for client, w := range l.clients {
		if now.Sub(w.seen) > idleTTL {
			delete(l.clients, client)
			removed++
		}
	}
	return removed
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects requests over the limit with a Retry-After header.
// onLimit renders the body; when nil a plain-text 429 is written.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(clientOf(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			if l.hits != nil {
				l.hits.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(wait.Seconds())))))
			if onLimit == nil {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
