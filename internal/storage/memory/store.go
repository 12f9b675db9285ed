// Package memory is a process-local ledger store. Contents are lost on exit;
// it backs tests and DATA_BACKEND=memory runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu       sync.RWMutex
	expenses []core.Expense
	incomes  []core.Income
	nextExp  int64
	nextInc  int64
}

func New() *Store {
	return &Store{}
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextExp++
	e.ID = s.nextExp
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) AddIncome(_ context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextInc++
	i.ID = s.nextInc
	s.incomes = append(s.incomes, i)
	return i.ID, nil
}

func (s *Store) ListExpenses(_ context.Context, period *core.Period) ([]core.Expense, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterExpenses(s.expenses, period), nil
}

func (s *Store) ListIncome(_ context.Context, period *core.Period) ([]core.Income, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterIncomes(s.incomes, period), nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteIncome(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.incomes {
		if s.incomes[i].ID == id {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CategorySummary(_ context.Context, period core.Period) ([]core.CategoryTotal, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.SummarizeByCategory(filterExpenses(s.expenses, &period)), nil
}

func (s *Store) FinancialSummary(_ context.Context, period core.Period) (core.FinancialSummary, error) {
	if err := period.Validate(); err != nil {
		return core.FinancialSummary{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Summarize(period, filterExpenses(s.expenses, &period), filterIncomes(s.incomes, &period)), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// newestFirst orders by date descending, then by id descending.
func newestFirst(da, db core.Date, ia, ib int64) bool {
	if !da.Equal(db.Time) {
		return da.After(db.Time)
	}
	return ia > ib
}

func filterExpenses(in []core.Expense, period *core.Period) []core.Expense {
	out := make([]core.Expense, 0, len(in))
	for _, e := range in {
		if period == nil || period.Contains(e.Date) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out
}

func filterIncomes(in []core.Income, period *core.Period) []core.Income {
	out := make([]core.Income, 0, len(in))
	for _, i := range in {
		if period == nil || period.Contains(i.Date) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return newestFirst(out[a].Date, out[b].Date, out[a].ID, out[b].ID) })
	return out
}
