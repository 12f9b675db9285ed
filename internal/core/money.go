// Package core provides money parsing and handling utilities.
//
// Amounts are kept as shopspring decimals end to end so that a value such as
// 19.999 is stored and summed without binary floating point drift.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxFractionDigits is the finest precision an amount may carry.
const MaxFractionDigits = 8

// MaxAmount is the largest amount accepted for a single entry.
var MaxAmount = decimal.New(1, 15)

// ParseAmount converts a user supplied decimal string into an amount.
//
// A single comma is read as the decimal separator (12,34) unless it is
// followed by exactly three digits, which reads as a thousands separator and
// is rejected along with any string mixing commas and dots. The value is kept
// at full precision; rounding only happens when formatting. Returns
// ErrInvalidAmount for malformed, zero, negative or out of range input.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("19.999") -> 19.999, nil
//	ParseAmount("1,000")  -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		whole, frac, _ := strings.Cut(s, ",")
		if strings.ContainsAny(frac, ",.") || strings.Contains(whole, ".") || len(frac) == 3 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = whole + "." + frac
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// AmountFromFloat converts a float, rejecting NaN and infinities.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(f)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
