package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func allowed(l *Limiter, client string) bool {
	ok, _ := l.Allow(client)
	return ok
}

func TestAllowWithinWindow(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, allowed(l, "10.0.0.1"), "request %d", i+1)
	}
	clock.t = clock.t.Add(20 * time.Second)
	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)
	assert.True(t, allowed(l, "10.0.0.2"), "clients are limited independently")

	clock.t = clock.t.Add(40 * time.Second)
	assert.True(t, allowed(l, "10.0.0.1"), "window resets after a minute")
}

func TestSteadyTrafficDoesNotExtendWindow(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerMinute: 2})

	assert.True(t, allowed(l, "a"))
	clock.t = clock.t.Add(40 * time.Second)
	assert.True(t, allowed(l, "a"))
	clock.t = clock.t.Add(30 * time.Second)
	assert.True(t, allowed(l, "a"))
}

func TestCustomWindow(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerMinute: 1, Window: 10 * time.Second})

	assert.True(t, allowed(l, "a"))
	assert.False(t, allowed(l, "a"))
	clock.t = clock.t.Add(10 * time.Second)
	assert.True(t, allowed(l, "a"))
}

func TestIdleClientsArePruned(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerMinute: 5})

	allowed(l, "old")
	clock.t = clock.t.Add(11 * time.Minute)
	allowed(l, "new")

	assert.Equal(t, 1, l.Clients())
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits"})
	l := NewLimiter(Config{RequestsPerMinute: 1, Hits: hits})

	h := l.Middleware(
		func(*http.Request) string { return "192.0.2.1" },
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(hits))
}

func TestMiddlewareDefaultRejection(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1})
	h := l.Middleware(func(*http.Request) string { return "x" }, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}
