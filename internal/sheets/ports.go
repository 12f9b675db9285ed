// Package sheets mirrors ledger entries into a spreadsheet, one row per entry.
package sheets

import (
	"context"
	"strconv"
	"strings"

	"fintrack/internal/events"
)

// Header is the first row of the mirror sheet.
var Header = []string{"Kind", "ID", "Date", "Amount", "Label", "Description"}

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Ports for outbound adapters.
type (
	// EntrySink receives ledger changes. Both calls must be safe to repeat:
	// the broker may deliver the same event more than once.
	EntrySink interface {
		AppendEntry(ctx context.Context, kind events.Kind, id int64, entry events.Entry) error
		RemoveEntry(ctx context.Context, kind events.Kind, id int64) error
	}
)

// Row renders an entry in column order.
func Row(kind events.Kind, id int64, entry events.Entry) []string {
	return []string{
		string(kind),
		strconv.FormatInt(id, 10),
		entry.Date,
		entry.Amount,
		entry.Label,
		entry.Description,
	}
}

// Matches reports whether the first two cells of a row identify kind and id.
// Cells may come back as strings or numbers depending on how the sheet renders them.
func Matches(row []any, kind events.Kind, id int64) bool {
	if len(row) < 2 {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(cellString(row[0])), string(kind)) {
		return false
	}
	cell := strings.TrimSpace(cellString(row[1]))
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n == id
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f == float64(id)
	}
	return false
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}
