package services

import (
	"context"

	"fintrack/internal/core"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Store is the ledger: two independently identified collections plus the
// period aggregates derived from them.
type Store interface {
	AddExpense(ctx context.Context, e core.Expense) (int64, error)
	AddIncome(ctx context.Context, i core.Income) (int64, error)
	ListExpenses(ctx context.Context, period *core.Period) ([]core.Expense, error)
	ListIncome(ctx context.Context, period *core.Period) ([]core.Income, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
	DeleteIncome(ctx context.Context, id int64) (bool, error)
	CategorySummary(ctx context.Context, period core.Period) ([]core.CategoryTotal, error)
	FinancialSummary(ctx context.Context, period core.Period) (core.FinancialSummary, error)
	Ping(ctx context.Context) error
	Close() error
}

// SummaryCache holds computed monthly summaries. Implementations treat their
// own failures as misses.
type SummaryCache interface {
	Get(ctx context.Context, period core.Period) (core.FinancialSummary, bool)
	Set(ctx context.Context, summary core.FinancialSummary)
	Invalidate(ctx context.Context, period core.Period)
	InvalidateAll(ctx context.Context)
}

// Revisioned is implemented by stores that other processes may write to.
// Revision changes whenever any writer commits, so a cache in front of the
// store can tell its entries may be stale.
type Revisioned interface {
	Revision(ctx context.Context) (int64, error)
}
