// Package http exposes the ledger as a JSON REST service with an embedded
// single page frontend.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	appweb "fintrack/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ledger is the subset of the ledger service the handlers call.
type Ledger interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	AddIncome(ctx context.Context, i core.Income) (int64, error)
	ListExpenses(ctx context.Context, period *core.Period) ([]core.Expense, error)
	ListIncome(ctx context.Context, period *core.Period) ([]core.Income, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	DeleteIncome(ctx context.Context, id int64) (bool, error)
	CategorySummary(ctx context.Context, period core.Period) ([]core.CategoryTotal, error)
	FinancialSummary(ctx context.Context, period core.Period) (core.FinancialSummary, error)
	Ping(ctx context.Context) error
}

// Config holds the server's listen address, timeouts and collaborators.
type Config struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	RateLimitPerMinute int

	Logger  *applog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
}

type Server struct {
	http.Server
	ledger   Ledger
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	metrics  *metrics.Metrics
	static   fs.FS
	started  time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger Ledger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	s := &Server{
		Server: http.Server{
			Addr:         cfg.Addr,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		ledger:   ledger,
		logger:   logger,
		detector: security.NewDetector(),
		metrics:  m,
		started:  time.Now(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Hits:              m.RateLimitHits,
		}),
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		s.static = sub
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	s.Handler = s.routes(cfg.Gatherer)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.metrics.Middleware)
	r.Use(security.NewHeaders(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.onSuspicious))
	r.Use(chimiddleware.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/", s.handleIndex)
	if s.static != nil {
		r.With(security.CacheFor(time.Hour)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limitWrites)

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", s.handleCreateExpense)
			r.Get("/", s.handleListExpenses)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
		r.Route("/income", func(r chi.Router) {
			r.Post("/", s.handleCreateIncome)
			r.Get("/", s.handleListIncome)
			r.Delete("/{id}", s.handleDeleteIncome)
		})
		r.Get("/summary", s.handleSummary)
		r.Get("/summary/categories", s.handleCategorySummary)
		r.Get("/categories", s.handleCategories)
	})

	return r
}

// limitWrites rate limits mutating requests per client; reads pass through.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "please try again later")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (s *Server) onSuspicious(r *http.Request, reason string) {
	s.metrics.SuspiciousRequests.WithLabelValues(reason).Inc()
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
		"reason", reason,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.Header.Get("User-Agent"))
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
