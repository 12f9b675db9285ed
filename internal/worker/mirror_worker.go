// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/sheets"
)

// Source delivers events to a handler until ctx is cancelled.
type Source interface {
	Consume(ctx context.Context, handler events.Handler) error
}

// MirrorWorker keeps a sheets.EntrySink in step with the ledger.
type MirrorWorker struct {
	sink    sheets.EntrySink
	logger  *applog.Logger
	metrics *metrics.Metrics
}

func NewMirrorWorker(sink sheets.EntrySink, logger *applog.Logger, m *metrics.Metrics) *MirrorWorker {
	return &MirrorWorker{
		sink:    sink,
		logger:  logger.WithComponent(applog.ComponentWorker),
		metrics: m,
	}
}

// Run consumes from src until ctx is cancelled. Cancellation is not an error.
func (w *MirrorWorker) Run(ctx context.Context, src Source) error {
	w.logger.InfoContext(ctx, "Mirror worker started", applog.FieldOperation, applog.OpStartup)
	err := src.Consume(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Mirror worker stopped", applog.FieldOperation, applog.OpShutdown)
		return nil
	}
	return err
}

// HandleEvent applies one event. A returned error leaves the event for redelivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, evt events.EntryEvent) error {
	logger := w.logger.With(
		applog.FieldEventID, evt.EventID,
		applog.FieldKind, evt.Kind,
		applog.FieldEntryID, evt.EntryID,
		applog.FieldOperation, applog.OpMirror,
	)

	var err error
	switch evt.Action {
	case events.ActionCreated:
		if evt.Entry == nil {
			w.observe(evt.Action, "skipped")
			logger.WarnContext(ctx, "Created event without entry snapshot, skipping")
			return nil
		}
		err = w.sink.AppendEntry(ctx, evt.Kind, evt.EntryID, *evt.Entry)
	case events.ActionDeleted:
		err = w.sink.RemoveEntry(ctx, evt.Kind, evt.EntryID)
	default:
		w.observe(evt.Action, "skipped")
		logger.WarnContext(ctx, "Unknown event action, skipping", "action", evt.Action)
		return nil
	}

	if err != nil {
		w.observe(evt.Action, "error")
		logger.ErrorContext(ctx, "Failed to mirror event", applog.FieldError, err)
		return fmt.Errorf("mirror %s %s: %w", evt.Action, evt.Key(), err)
	}

	w.observe(evt.Action, "ok")
	logger.InfoContext(ctx, "Mirrored ledger event", "action", evt.Action)
	return nil
}

func (w *MirrorWorker) observe(action events.Action, result string) {
	if w.metrics == nil {
		return
	}
	w.metrics.MirrorApplied.WithLabelValues(string(action), result).Inc()
}
