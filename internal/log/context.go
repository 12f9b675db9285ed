package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or one wrapping
// slog.Default with component "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

func (l *Logger) RequestStarted(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithClientIP(clientIP)
	l.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// RequestCompleted logs 4xx at warn and 5xx at error.
func (l *Logger) RequestCompleted(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(status, elapsed.Milliseconds(), status < 400).
		WithClientIP(clientIP)
	l.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// EntryCreated records a stored ledger entry. label is the expense category
// or the income source.
func (l *Logger) EntryCreated(ctx context.Context, kind string, id int64, amount, label, date string) {
	fields := NewFields().
		WithEntry(kind, id, amount, label, date).
		WithOperation(OpCreate)
	l.InfoContext(ctx, "Ledger entry created", fields.ToSlice()...)
}

func (l *Logger) OperationFailed(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	l.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
