// Package events defines the ledger change notifications published after a
// successful write and consumed by the mirror worker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type (
	Kind   string
	Action string
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"

	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
)

// Entry is the wire snapshot of a ledger entry. Label is the category for
// expenses and the source for income.
type Entry struct {
	Amount      string `json:"amount"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// EntryEvent describes one change to the ledger.
type EntryEvent struct {
	EventID    string    `json:"event_id"`
	Kind       Kind      `json:"kind"`
	Action     Action    `json:"action"`
	EntryID    int64     `json:"entry_id"`
	Entry      *Entry    `json:"entry,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, evt EntryEvent) error
	Close() error
}

// Handler processes one consumed event. A returned error asks the broker to redeliver.
type Handler func(ctx context.Context, evt EntryEvent) error

func newEvent(kind Kind, action Action, id int64, entry *Entry) EntryEvent {
	return EntryEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Action:     action,
		EntryID:    id,
		Entry:      entry,
		OccurredAt: time.Now().UTC(),
	}
}

func ExpenseCreated(e core.Expense) EntryEvent {
	return newEvent(KindExpense, ActionCreated, e.ID, &Entry{
		Amount:      e.Amount.String(),
		Label:       e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
	})
}

func IncomeCreated(i core.Income) EntryEvent {
	return newEvent(KindIncome, ActionCreated, i.ID, &Entry{
		Amount:      i.Amount.String(),
		Label:       i.Source,
		Description: i.Description,
		Date:        i.Date.String(),
	})
}

func ExpenseDeleted(id int64) EntryEvent {
	return newEvent(KindExpense, ActionDeleted, id, nil)
}

func IncomeDeleted(id int64) EntryEvent {
	return newEvent(KindIncome, ActionDeleted, id, nil)
}

// Key identifies the entry the event refers to, e.g. "expense:42".
func (e EntryEvent) Key() string {
	return string(e.Kind) + ":" + strconv.FormatInt(e.EntryID, 10)
}

// Validate checks a decoded event before it is handled.
func (e EntryEvent) Validate() error {
	switch e.Kind {
	case KindExpense, KindIncome:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	switch e.Action {
	case ActionCreated:
		if e.Entry == nil {
			return fmt.Errorf("created event %s has no entry", e.Key())
		}
	case ActionDeleted:
	default:
		return fmt.Errorf("unknown event action %q", e.Action)
	}
	if e.EntryID <= 0 {
		return fmt.Errorf("event has invalid entry id %d", e.EntryID)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes and validates an event.
func FromJSON(data []byte) (EntryEvent, error) {
	var evt EntryEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return EntryEvent{}, err
	}
	if err := evt.Validate(); err != nil {
		return EntryEvent{}, err
	}
	return evt, nil
}

// NoopPublisher drops every event. Used when EVENT_BROKER=none.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, EntryEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
