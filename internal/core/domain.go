package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk and on-wire date format.
const DateLayout = "2006-01-02"

// maxExponent bounds the decimal exponent of an amount before it is compared
// or printed. Anything past it is far outside MaxAmount and MaxFractionDigits.
const maxExponent = 64

type (
	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        Date
	}

	Income struct {
		ID          int64
		Amount      decimal.Decimal
		Source      string
		Description string
		Date        Date
	}
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	ErrInvalidAmount    = fmt.Errorf("%w: amount must be a positive number up to 1e15 with at most 8 decimals", ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("%w: date must be a valid calendar date (YYYY-MM-DD)", ErrInvalidInput)
	ErrEmptyCategory    = fmt.Errorf("%w: category is required", ErrInvalidInput)
	ErrEmptySource      = fmt.Errorf("%w: source is required", ErrInvalidInput)
	ErrInvalidPeriod    = fmt.Errorf("%w: month must be 1-12 and year 1-9999", ErrInvalidInput)
	ErrIncompletePeriod = fmt.Errorf("%w: month and year must be given together", ErrInvalidInput)
)

// Suggested labels. Both sets are open: any non-empty label is stored.
var (
	ExpenseCategories = []string{"Food", "Transport", "Entertainment", "Utilities", "Shopping", "Healthcare", "Education", "Other"}
	IncomeSources     = []string{"Salary", "Freelance", "Investment", "Gift", "Other"}
)

// NewDate returns the UTC calendar date for year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string. Out of range days such as 2024-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Month returns the month as a number from 1 to 12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Period returns the month the date belongs to.
func (d Date) Period() Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// Validate rejects the zero date and years outside 1-9999.
func (d Date) Validate() error {
	if d.IsZero() || d.Year() < 1 || d.Year() > 9999 {
		return ErrInvalidDate
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts, amounts above MaxAmount
// and amounts with more than MaxFractionDigits decimals. The exponent is
// checked before any arithmetic so that inputs such as 1e300000000 are
// refused without being expanded.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	if exp := a.Exponent(); exp > maxExponent || exp < -maxExponent {
		return ErrInvalidAmount
	}
	if a.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	if a.Exponent() < -MaxFractionDigits && !a.Equal(a.Truncate(MaxFractionDigits)) {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the amount, a non-blank category and the date.
func (e Expense) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Date.Validate()
}

// Validate checks the amount, a non-blank source and the date.
func (i Income) Validate() error {
	if err := ValidateAmount(i.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return ErrEmptySource
	}
	return i.Date.Validate()
}
