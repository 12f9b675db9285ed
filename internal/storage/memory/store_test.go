package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	lunch, err := s.AddExpense(ctx, core.Expense{
		Amount:      decimal.RequireFromString("50.00"),
		Category:    "Food",
		Description: "lunch",
		Date:        core.NewDate(2024, 3, 15),
	})
	require.NoError(t, err)
	_, err = s.AddExpense(ctx, core.Expense{Amount: decimal.NewFromInt(3), Category: "Food", Date: core.NewDate(2024, 3, 15)})
	require.NoError(t, err)
	_, err = s.AddIncome(ctx, core.Income{Amount: decimal.RequireFromString("2000.00"), Source: "Salary", Date: core.NewDate(2024, 3, 1)})
	require.NoError(t, err)

	march := core.Period{Year: 2024, Month: 3}
	list, err := s.ListExpenses(ctx, &march)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Greater(t, list[0].ID, list[1].ID)

	summary, err := s.FinancialSummary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, "1947", summary.Balance.String())

	removed, err := s.DeleteExpense(ctx, lunch)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.DeleteExpense(ctx, lunch)
	require.NoError(t, err)
	assert.False(t, removed)

	next, err := s.AddExpense(ctx, core.Expense{Amount: decimal.NewFromInt(1), Category: "Food", Date: core.NewDate(2024, 3, 2)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), next)
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	s := New()
	_, err := s.AddExpense(context.Background(), core.Expense{Amount: decimal.NewFromInt(-1), Category: "Food", Date: core.NewDate(2024, 1, 1)})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = s.ListIncome(context.Background(), &core.Period{Year: 2024, Month: 0})
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
}
