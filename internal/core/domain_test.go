package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok {
			assert.NoError(t, err, "case %d", i)
		} else {
			assert.ErrorIs(t, err, ErrInvalidInput, "case %d", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())
	assert.Equal(t, Period{Year: 2024, Month: 3}, d.Period())

	for _, bad := range []string{"", "15/03/2024", "2024-02-30", "2024-13-01", "yesterday"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:   decimal.RequireFromString("50.00"),
		Category: "Food",
		Date:     NewDate(2024, 3, 15),
	}
	require.NoError(t, good.Validate())

	// Unknown categories are accepted as-is.
	custom := good
	custom.Category = "Pets"
	assert.NoError(t, custom.Validate())

	cases := map[string]struct {
		mutate func(*Expense)
		want   error
	}{
		"negative amount": {func(e *Expense) { e.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		"zero amount":     {func(e *Expense) { e.Amount = decimal.Zero }, ErrInvalidAmount},
		"huge amount":     {func(e *Expense) { e.Amount = decimal.New(1, 300000000) }, ErrInvalidAmount},
		"too precise":     {func(e *Expense) { e.Amount = decimal.New(1, -9) }, ErrInvalidAmount},
		"blank category":  {func(e *Expense) { e.Category = "   " }, ErrEmptyCategory},
		"zero date":       {func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := good
			tc.mutate(&e)
			err := e.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{Amount: decimal.NewFromInt(2000), Source: "Salary", Date: NewDate(2024, 3, 1)}
	require.NoError(t, good.Validate())

	noSource := good
	noSource.Source = ""
	assert.ErrorIs(t, noSource.Validate(), ErrEmptySource)

	negative := good
	negative.Amount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, negative.Validate(), ErrInvalidAmount)

	huge := good
	huge.Amount = decimal.RequireFromString("1e5000000")
	assert.ErrorIs(t, huge.Validate(), ErrInvalidAmount)
}
