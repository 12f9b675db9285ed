// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	EntriesCreated *prometheus.CounterVec
	EntriesDeleted *prometheus.CounterVec
	StoreDuration  *prometheus.HistogramVec
	StoreErrors    *prometheus.CounterVec

	// Side effects
	EventsPublished *prometheus.CounterVec
	SummaryCache    *prometheus.CounterVec
	MirrorApplied   *prometheus.CounterVec

	// API metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPInFlight       prometheus.Gauge
	RateLimitHits      prometheus.Counter
	SuspiciousRequests *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EntriesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_entries_created_total",
			Help: "Ledger entries created by kind",
		}, []string{"kind"}),
		EntriesDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_entries_deleted_total",
			Help: "Ledger entries deleted by kind",
		}, []string{"kind"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fintrack_store_operation_duration_seconds",
			Help:    "Duration of ledger store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_store_errors_total",
			Help: "Ledger store failures by operation",
		}, []string{"operation"}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_events_published_total",
			Help: "Ledger events handed to the broker by result",
		}, []string{"result"}),
		SummaryCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_summary_cache_requests_total",
			Help: "Summary cache lookups by result (hit, miss, bypass)",
		}, []string{"result"}),
		MirrorApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_mirror_events_total",
			Help: "Events applied to the spreadsheet mirror",
		}, []string{"action", "result"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fintrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "fintrack_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
		SuspiciousRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_suspicious_requests_total",
			Help: "Requests flagged by the security detector",
		}, []string{"reason"}),
	}
}

// ObserveStore records the outcome of one store call started at start.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation).Inc()
	}
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
