package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

type harness struct {
	ledger   *services.LedgerService
	opens    int
	releases int
}

func newHarness() *harness {
	return &harness{ledger: services.NewLedgerService(memory.New())}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	open := func(context.Context) (Ledger, func() error, error) {
		h.opens++
		return h.ledger, func() error { h.releases++; return nil }, nil
	}
	err := Run(context.Background(), open, args, strings.NewReader(stdin), &out, &errOut, WithClock(func() time.Time { return fixedNow }))
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := h.run(t, "", args...)
	require.NoError(t, err)
	return out
}

func TestExpenseAddAndList(t *testing.T) {
	h := newHarness()

	out := h.mustRun(t, "expense", "add", "--amount", "50.00", "--category", "Food", "--description", "lunch", "--date", "2024-03-15")
	assert.Equal(t, "Added expense #1: 50.00 Food on 2024-03-15\n", out)

	out = h.mustRun(t, "expense", "add", "--amount", "12,5", "--category", "Transport")
	assert.Contains(t, out, "12.50 Transport on 2024-03-20", "comma decimal and default date")

	out = h.mustRun(t, "expense", "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CATEGORY")
	assert.Contains(t, lines[1], "Transport", "newest first")
	assert.Contains(t, lines[2], "lunch")

	assert.Equal(t, h.opens, h.releases, "every opened ledger is released")
}

func TestExpenseAddRejectsInvalidInput(t *testing.T) {
	h := newHarness()

	_, _, err := h.run(t, "", "expense", "add", "--amount", "-3", "--category", "Food")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	for _, amount := range []string{"1,000", "1,000.50", "1e300000000"} {
		_, _, err = h.run(t, "", "expense", "add", "--amount", amount, "--category", "Food")
		assert.ErrorIs(t, err, core.ErrInvalidAmount, amount)
	}

	_, _, err = h.run(t, "", "expense", "add", "--amount", "3", "--category", "Food", "--date", "2024-13-01")
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, _, err = h.run(t, "", "expense", "add", "--amount", "3", "--category", " ")
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	_, _, err = h.run(t, "", "expense", "add", "--amount", "3")
	assert.Error(t, err, "category flag is required")

	assert.Equal(t, 1, h.opens, "flag and parse errors never open the ledger")
}

func TestExpenseListPeriods(t *testing.T) {
	h := newHarness()
	h.mustRun(t, "expense", "add", "--amount", "5", "--category", "Food", "--date", "2024-01-10")

	out := h.mustRun(t, "expense", "list")
	assert.Equal(t, "No expenses found for March 2024\n", out)

	out = h.mustRun(t, "expense", "list", "--month", "1", "--year", "2024")
	assert.Contains(t, out, "2024-01-10")

	out = h.mustRun(t, "expense", "list", "--all")
	assert.Contains(t, out, "2024-01-10")

	_, _, err := h.run(t, "", "expense", "list", "--month", "1")
	assert.ErrorIs(t, err, core.ErrIncompletePeriod)

	_, _, err = h.run(t, "", "expense", "list", "--all", "--month", "1")
	assert.Error(t, err)
}

func TestExpenseDeleteConfirmation(t *testing.T) {
	h := newHarness()
	h.mustRun(t, "expense", "add", "--amount", "5", "--category", "Food")

	out, _, err := h.run(t, "n\n", "expense", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Are you sure you want to delete this expense? [y/N]")
	assert.Contains(t, out, "Deletion cancelled")

	out, _, err = h.run(t, "", "expense", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled", "EOF means no")

	out, _, err = h.run(t, "y\n", "expense", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted expense #1")

	_, _, err = h.run(t, "", "expense", "delete", "1", "--yes")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, _, err = h.run(t, "", "expense", "delete", "abc", "--yes")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestIncomeCommands(t *testing.T) {
	h := newHarness()

	out := h.mustRun(t, "income", "add", "--amount", "2000", "--source", "Salary", "--date", "2024-03-01")
	assert.Equal(t, "Added income #1: 2000.00 Salary on 2024-03-01\n", out)

	out = h.mustRun(t, "income", "list")
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "Salary")

	out = h.mustRun(t, "income", "delete", "1", "-y")
	assert.Contains(t, out, "Deleted income #1")

	out = h.mustRun(t, "income", "list", "--all")
	assert.Equal(t, "No income recorded\n", out)
}

func TestSummary(t *testing.T) {
	h := newHarness()
	h.mustRun(t, "expense", "add", "--amount", "50.00", "--category", "Food", "--date", "2024-03-15")
	h.mustRun(t, "income", "add", "--amount", "2000.00", "--source", "Salary", "--date", "2024-03-01")
	h.mustRun(t, "expense", "add", "--amount", "80", "--category", "Utilities", "--date", "2024-02-05")

	out := h.mustRun(t, "summary")
	assert.Contains(t, out, "Summary for March 2024")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "+1950.00")
	assert.Regexp(t, `Food\s+50\.00`, out)

	out = h.mustRun(t, "summary", "--back", "1")
	assert.Contains(t, out, "Summary for February 2024")
	assert.Contains(t, out, "-80.00")

	out, errOut, err := h.run(t, "", "summary", "--forward", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary for March 2024", "forward never passes the current month")
	assert.Contains(t, errOut, "Cannot navigate to future months")

	out = h.mustRun(t, "summary", "--month", "1", "--year", "2024", "--forward", "1")
	assert.Contains(t, out, "Summary for February 2024")

	out = h.mustRun(t, "summary", "--month", "6", "--year", "2023")
	assert.Contains(t, out, "No expenses this month")
	assert.Contains(t, out, "+0.00")

	_, _, err = h.run(t, "", "summary", "--back", "-1")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCategories(t *testing.T) {
	h := newHarness()
	out := h.mustRun(t, "categories")
	assert.Contains(t, out, "Food, Transport, Entertainment")
	assert.Contains(t, out, "Salary, Freelance")
	assert.Zero(t, h.opens)
}

func TestOpenFailureIsReported(t *testing.T) {
	boom := errors.New("unable to open database file")
	open := func(context.Context) (Ledger, func() error, error) { return nil, nil, boom }

	var out bytes.Buffer
	err := Run(context.Background(), open, []string{"expense", "list"}, strings.NewReader(""), &out, &out)
	assert.ErrorIs(t, err, boom)
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, " y \n": true, "n\n": false, "\n": false, "": false, "maybe\n": false} {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(input), &out, "Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Proceed? [y/N] ", out.String())
	}
}
