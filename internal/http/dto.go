package http

import (
	"encoding/json"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Amounts are decoded by decimal.Decimal, which accepts both JSON numbers and
// numeric strings. A nil pointer means the field was missing.

type createExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

type createIncomeRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Source      string           `json:"source"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

type expenseResponse struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

type incomeResponse struct {
	ID          int64       `json:"id"`
	Amount      json.Number `json:"amount"`
	Source      string      `json:"source"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type categoryTotalResponse struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
}

type summaryResponse struct {
	Month           int                     `json:"month"`
	Year            int                     `json:"year"`
	TotalIncome     json.Number             `json:"total_income"`
	TotalExpenses   json.Number             `json:"total_expenses"`
	Balance         json.Number             `json:"balance"`
	CategorySummary []categoryTotalResponse `json:"category_summary"`
}

type categoriesResponse struct {
	ExpenseCategories []string `json:"expense_categories"`
	IncomeSources     []string `json:"income_sources"`
}

// number renders d as a bare JSON number without losing precision.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func expenseFromDomain(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      number(e.Amount),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
	}
}

func expensesFromDomain(in []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(in))
	for i, e := range in {
		out[i] = expenseFromDomain(e)
	}
	return out
}

func incomeFromDomain(i core.Income) incomeResponse {
	return incomeResponse{
		ID:          i.ID,
		Amount:      number(i.Amount),
		Source:      i.Source,
		Description: i.Description,
		Date:        i.Date.String(),
	}
}

func incomesFromDomain(in []core.Income) []incomeResponse {
	out := make([]incomeResponse, len(in))
	for i, inc := range in {
		out[i] = incomeFromDomain(inc)
	}
	return out
}

func summaryFromDomain(s core.FinancialSummary) summaryResponse {
	cats := make([]categoryTotalResponse, len(s.Categories))
	for i, c := range s.Categories {
		cats[i] = categoryTotalResponse{Category: c.Category, Total: number(c.Total)}
	}
	return summaryResponse{
		Month:           s.Period.Month,
		Year:            s.Period.Year,
		TotalIncome:     number(s.TotalIncome),
		TotalExpenses:   number(s.TotalExpenses),
		Balance:         number(s.Balance),
		CategorySummary: cats,
	}
}
