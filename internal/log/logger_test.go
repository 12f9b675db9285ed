package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	logger.Info("saved", FieldEntryID, 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ledger", record[FieldComponent])
	assert.Equal(t, float64(3), record[FieldEntryID])

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	ctx := WithLogger(context.Background(), base.With(FieldRequestID, "req-1"))
	FromContext(ctx).InfoContext(ctx, "inside")

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"component":"http"`)
}

func TestEntryCreated(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	logger.EntryCreated(context.Background(), "income", 4, "1500.00", "Salary", "2024-03-01")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "income", record[FieldKind])
	assert.Equal(t, "1500.00", record[FieldAmount])
	assert.Equal(t, OpCreate, record[FieldOperation])
}

func TestRequestCompletedLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})
	req := httptest.NewRequest(http.MethodPost, "/expenses", nil)

	logger.RequestCompleted(context.Background(), req, http.StatusInternalServerError, 12*time.Millisecond, "127.0.0.1")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"duration_ms":12`)

	buf.Reset()
	logger.RequestCompleted(context.Background(), req, http.StatusNotFound, time.Millisecond, "127.0.0.1")
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	logger.RequestCompleted(context.Background(), req, http.StatusCreated, time.Millisecond, "127.0.0.1")
	assert.Contains(t, buf.String(), `"level":"INFO"`)

	buf.Reset()
	logger.RequestStarted(context.Background(), req, "127.0.0.1")
	assert.Empty(t, buf.String(), "request start is debug only")

	buf.Reset()
	logger.OperationFailed(context.Background(), "boom", errors.New("disk full"), OpCreate, nil)
	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	assert.Equal(t, "unknown", logger.Component())
}
