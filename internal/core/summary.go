package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the sum of expense amounts for one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// FinancialSummary is the derived view of a single month. Nothing here is stored.
type FinancialSummary struct {
	Period        Period
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
	Categories    []CategoryTotal
}

// SummarizeByCategory groups expenses by category, sorted by category name.
// Categories without entries never appear.
func SummarizeByCategory(expenses []Expense) []CategoryTotal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	out := make([]CategoryTotal, 0, len(totals))
	for name, total := range totals {
		out = append(out, CategoryTotal{Category: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Summarize computes totals and balance for a month from already filtered entries.
func Summarize(p Period, expenses []Expense, incomes []Income) FinancialSummary {
	s := FinancialSummary{
		Period:        p,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		Categories:    SummarizeByCategory(expenses),
	}
	for _, i := range incomes {
		s.TotalIncome = s.TotalIncome.Add(i.Amount)
	}
	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}
