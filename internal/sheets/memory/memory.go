package memory

import (
	"context"
	"sync"

	"fintrack/internal/events"
	"fintrack/internal/sheets"
)

var _ sheets.EntrySink = (*Store)(nil)

// Store keeps mirrored rows in memory. Used when no spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows [][]string
}

func New() *Store {
	return &Store{}
}

// AppendEntry adds a row unless one already exists for kind and id.
func (s *Store) AppendEntry(_ context.Context, kind events.Kind, id int64, entry events.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(kind, id) >= 0 {
		return nil
	}
	s.rows = append(s.rows, sheets.Row(kind, id, entry))
	return nil
}

// RemoveEntry drops the row for kind and id. Missing rows are ignored.
func (s *Store) RemoveEntry(_ context.Context, kind events.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(kind, id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the mirrored rows in insertion order.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (s *Store) indexLocked(kind events.Kind, id int64) int {
	for i, r := range s.rows {
		if sheets.Matches([]any{r[0], r[1]}, kind, id) {
			return i
		}
	}
	return -1
}
