package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerService is the single entry point both front ends use. Writes go to
// the store first; event publication and cache upkeep follow and never undo
// or fail a write that already succeeded.
type LedgerService struct {
	store     Store
	publisher events.Publisher
	cache     SummaryCache
	metrics   *metrics.Metrics

	// cacheMu orders cache fills against invalidations. A summary computed
	// before a write is only stored if no invalidation touched its month
	// while it was being read.
	cacheMu      sync.Mutex
	epoch        uint64
	generations  map[core.Period]uint64
	revision     int64
	haveRevision bool
}

// cacheStamp captures the invalidation state a summary was read under.
type cacheStamp struct {
	epoch      uint64
	generation uint64
}

type Option func(*LedgerService)

func WithPublisher(p events.Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithSummaryCache(c SummaryCache) Option {
	return func(s *LedgerService) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

func NewLedgerService(store Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:       store,
		publisher:   events.NoopPublisher{},
		generations: make(map[core.Period]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// AddExpense stores the expense and returns its new id.
func (s *LedgerService) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	start := time.Now()
	id, err := s.store.AddExpense(ctx, e)
	s.metrics.ObserveStore("add_expense", start, err)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}
	e.ID = id
	s.metrics.EntriesCreated.WithLabelValues(string(events.KindExpense)).Inc()

	s.invalidate(ctx, e.Date.Period())
	s.publish(ctx, events.ExpenseCreated(e))
	return id, nil
}

// AddIncome stores the income entry and returns its new id.
func (s *LedgerService) AddIncome(ctx context.Context, i core.Income) (int64, error) {
	start := time.Now()
	id, err := s.store.AddIncome(ctx, i)
	s.metrics.ObserveStore("add_income", start, err)
	if err != nil {
		return 0, fmt.Errorf("add income: %w", err)
	}
	i.ID = id
	s.metrics.EntriesCreated.WithLabelValues(string(events.KindIncome)).Inc()

	s.invalidate(ctx, i.Date.Period())
	s.publish(ctx, events.IncomeCreated(i))
	return id, nil
}

// ListExpenses returns expenses newest first; a nil period means all of them.
func (s *LedgerService) ListExpenses(ctx context.Context, period *core.Period) ([]core.Expense, error) {
	start := time.Now()
	out, err := s.store.ListExpenses(ctx, period)
	s.metrics.ObserveStore("list_expenses", start, err)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// ListIncome returns income newest first; a nil period means all of it.
func (s *LedgerService) ListIncome(ctx context.Context, period *core.Period) ([]core.Income, error) {
	start := time.Now()
	out, err := s.store.ListIncome(ctx, period)
	s.metrics.ObserveStore("list_income", start, err)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return out, nil
}

// DeleteExpense reports whether an expense with id existed and was removed.
func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	removed, err := s.store.DeleteExpense(ctx, id)
	s.metrics.ObserveStore("delete_expense", start, err)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if !removed {
		return false, nil
	}
	s.metrics.EntriesDeleted.WithLabelValues(string(events.KindExpense)).Inc()

	s.invalidateAll(ctx)
	s.publish(ctx, events.ExpenseDeleted(id))
	return true, nil
}

// DeleteIncome reports whether an income entry with id existed and was removed.
func (s *LedgerService) DeleteIncome(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	removed, err := s.store.DeleteIncome(ctx, id)
	s.metrics.ObserveStore("delete_income", start, err)
	if err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	if !removed {
		return false, nil
	}
	s.metrics.EntriesDeleted.WithLabelValues(string(events.KindIncome)).Inc()

	s.invalidateAll(ctx)
	s.publish(ctx, events.IncomeDeleted(id))
	return true, nil
}

// CategorySummary returns per-category expense totals for the month.
func (s *LedgerService) CategorySummary(ctx context.Context, period core.Period) ([]core.CategoryTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if cached, _, ok := s.cached(ctx, period); ok {
		return cached.Categories, nil
	}

	start := time.Now()
	out, err := s.store.CategorySummary(ctx, period)
	s.metrics.ObserveStore("category_summary", start, err)
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	return out, nil
}

// FinancialSummary returns totals, balance and category breakdown for the month.
func (s *LedgerService) FinancialSummary(ctx context.Context, period core.Period) (core.FinancialSummary, error) {
	if err := period.Validate(); err != nil {
		return core.FinancialSummary{}, err
	}
	cached, stamp, ok := s.cached(ctx, period)
	if ok {
		return cached, nil
	}

	start := time.Now()
	summary, err := s.store.FinancialSummary(ctx, period)
	s.metrics.ObserveStore("financial_summary", start, err)
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("financial summary: %w", err)
	}
	s.fill(ctx, stamp, summary)
	return summary, nil
}

// Ping checks the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// cached looks the month up. The returned stamp is valid for fill only when
// the store's revision could be checked.
func (s *LedgerService) cached(ctx context.Context, period core.Period) (core.FinancialSummary, *cacheStamp, bool) {
	if s.cache == nil {
		return core.FinancialSummary{}, nil, false
	}
	if !s.syncRevision(ctx) {
		s.metrics.SummaryCache.WithLabelValues("bypass").Inc()
		return core.FinancialSummary{}, nil, false
	}

	s.cacheMu.Lock()
	stamp := &cacheStamp{epoch: s.epoch, generation: s.generations[period]}
	s.cacheMu.Unlock()

	summary, ok := s.cache.Get(ctx, period)
	if ok {
		s.metrics.SummaryCache.WithLabelValues("hit").Inc()
	} else {
		s.metrics.SummaryCache.WithLabelValues("miss").Inc()
	}
	return summary, stamp, ok
}

// fill stores summary unless its month was invalidated after stamp was taken.
func (s *LedgerService) fill(ctx context.Context, stamp *cacheStamp, summary core.FinancialSummary) {
	if s.cache == nil || stamp == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if stamp.epoch != s.epoch || stamp.generation != s.generations[summary.Period] {
		return
	}
	s.cache.Set(ctx, summary)
}

// syncRevision drops every cached month when the store reports a change
// this service did not see, such as a write from another process. It
// returns false when the revision cannot be read and the cache must not be
// trusted.
func (s *LedgerService) syncRevision(ctx context.Context) bool {
	rv, ok := s.store.(Revisioned)
	if !ok {
		return true
	}
	rev, err := rv.Revision(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read ledger revision, bypassing summary cache", "error", err)
		return false
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.haveRevision && rev == s.revision {
		return true
	}
	s.revision, s.haveRevision = rev, true
	s.epoch++
	s.cache.InvalidateAll(ctx)
	return true
}

func (s *LedgerService) invalidate(ctx context.Context, period core.Period) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generations[period]++
	s.cache.Invalidate(ctx, period)
}

// invalidateAll is used on delete, where the entry's month is no longer known.
func (s *LedgerService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.epoch++
	s.cache.InvalidateAll(ctx)
}

func (s *LedgerService) publish(ctx context.Context, evt events.EntryEvent) {
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		// Don't fail the request - the entry is already stored
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_id", evt.EventID,
			"key", evt.Key(),
			"error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("ok").Inc()
}

// Close releases the publisher and the store.
func (s *LedgerService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
