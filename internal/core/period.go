package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies a calendar month.
type Period struct {
	Year  int
	Month int // 1-12
}

// NewPeriod builds a validated period.
func NewPeriod(year, month int) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// CurrentPeriod returns the month containing now.
func CurrentPeriod() Period {
	return DateOf(time.Now()).Period()
}

// ParsePeriod reads an optional month/year pair as received from query
// strings or flags. Both empty means no period (nil); only one of them set
// is an error.
func ParsePeriod(month, year string) (*Period, error) {
	month, year = strings.TrimSpace(month), strings.TrimSpace(year)
	if month == "" && year == "" {
		return nil, nil
	}
	if month == "" || year == "" {
		return nil, ErrIncompletePeriod
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	p, err := NewPeriod(y, m)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 1 || p.Year > 9999 {
		return ErrInvalidPeriod
	}
	return nil
}

// Start is the first day of the month.
func (p Period) Start() Date {
	return NewDate(p.Year, p.Month, 1)
}

// Last is the final day of the month. It stays inside the month for
// December 9999, where the first day of the next month would need a
// five digit year.
func (p Period) Last() Date {
	return Date{Time: p.Start().AddDate(0, 1, -1)}
}

// Contains reports whether d falls in the month, using only its month and year.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Label renders the period as "March 2024".
func (p Period) Label() string {
	return p.Start().Format("January 2006")
}

// PrevMonth moves a selected date to the last day of the previous month.
func PrevMonth(d Date) Date {
	first := NewDate(d.Year(), d.Month(), 1)
	return Date{Time: first.AddDate(0, 0, -1)}
}

// NextMonth moves a selected date to the first day of the following month.
// Navigation never goes past the month containing now: in that case the
// input is returned unchanged and ok is false.
func NextMonth(d Date, now time.Time) (next Date, ok bool) {
	first := NewDate(d.Year(), d.Month(), 1)
	candidate := Date{Time: first.AddDate(0, 1, 0)}
	limit := DateOf(now).Period()
	if candidate.Year() > limit.Year || (candidate.Year() == limit.Year && candidate.Month() > limit.Month) {
		return d, false
	}
	return candidate, true
}
