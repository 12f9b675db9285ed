package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the handful of Sheets API calls the client makes.
type fakeSheets struct {
	mu          sync.Mutex
	rows        [][]any
	metaCalls   int
	deleteCalls int
	failReads   bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		if f.failReads {
			http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(gsheet.ValueRange{Values: f.rows})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		_ = json.NewEncoder(w).Encode(gsheet.AppendValuesResponse{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.deleteCalls++
		rng := req.Requests[0].DeleteDimension.Range
		if rng.SheetId != 7 || rng.Dimension != "ROWS" {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows[:rng.StartIndex], f.rows[rng.EndIndex:]...)
		_ = json.NewEncoder(w).Encode(gsheet.BatchUpdateSpreadsheetResponse{})
	case r.Method == http.MethodGet:
		f.metaCalls++
		_ = json.NewEncoder(w).Encode(gsheet.Spreadsheet{Sheets: []*gsheet.Sheet{
			{Properties: &gsheet.SheetProperties{SheetId: 3, Title: "Other"}},
			{Properties: &gsheet.SheetProperties{SheetId: 7, Title: "Ledger"}},
		}})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return NewWithService(svc, Config{SpreadsheetID: "sheet-1", SheetName: "Ledger"}, nil)
}

func TestAppendEntryWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, c.AppendEntry(ctx, events.KindExpense, 1, events.Entry{Amount: "50.00", Label: "Food", Description: "groceries", Date: "2024-03-15"}))
	require.NoError(t, c.AppendEntry(ctx, events.KindIncome, 1, events.Entry{Amount: "1500", Label: "Salary", Date: "2024-03-01"}))

	require.Len(t, fake.rows, 3)
	assert.Equal(t, []any{"Kind", "ID", "Date", "Amount", "Label", "Description"}, fake.rows[0])
	assert.Equal(t, []any{"expense", "1", "2024-03-15", "50.00", "Food", "groceries"}, fake.rows[1])
	assert.Equal(t, []any{"income", "1", "2024-03-01", "1500", "Salary", ""}, fake.rows[2])
}

func TestAppendEntrySkipsExistingRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		{"Kind", "ID"},
		{"expense", "4"},
	}}
	c := newTestClient(t, fake)

	require.NoError(t, c.AppendEntry(context.Background(), events.KindExpense, 4, events.Entry{Amount: "1", Label: "Other", Date: "2024-01-01"}))
	assert.Len(t, fake.rows, 2)
}

func TestRemoveEntryDeletesMatchingRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		{"Kind", "ID"},
		{"expense", "1"},
		{"income", "2"},
		{"expense", "2"},
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, c.RemoveEntry(ctx, events.KindExpense, 2))
	assert.Equal(t, [][]any{{"Kind", "ID"}, {"expense", "1"}, {"income", "2"}}, fake.rows)

	require.NoError(t, c.RemoveEntry(ctx, events.KindExpense, 1))
	assert.Equal(t, 1, fake.metaCalls, "sheet id is looked up once")
	assert.Equal(t, 2, fake.deleteCalls)
}

func TestRemoveEntryMissingRowIsNoop(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{{"Kind", "ID"}, {"income", "9"}}}
	c := newTestClient(t, fake)

	require.NoError(t, c.RemoveEntry(context.Background(), events.KindExpense, 9))
	assert.Zero(t, fake.deleteCalls)
	assert.Len(t, fake.rows, 2)
}

func TestReadFailureIsReturned(t *testing.T) {
	fake := &fakeSheets{failReads: true}
	c := newTestClient(t, fake)

	err := c.AppendEntry(context.Background(), events.KindExpense, 1, events.Entry{})
	assert.Error(t, err)
	err = c.RemoveEntry(context.Background(), events.KindExpense, 1)
	assert.Error(t, err)
}

func TestFindEntryRow(t *testing.T) {
	values := [][]any{
		{"Kind", "ID"},
		{},
		{"income", "3"},
		{"expense", float64(3)},
	}
	assert.Equal(t, 3, findEntryRow(values, events.KindExpense, 3))
	assert.Equal(t, 2, findEntryRow(values, events.KindIncome, 3))
	assert.Equal(t, -1, findEntryRow(values, events.KindIncome, 4))
	assert.Equal(t, -1, findEntryRow(nil, events.KindIncome, 4))
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{}, nil)
	assert.ErrorContains(t, err, "spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, nil)
	assert.ErrorContains(t, err, "read service account file")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", CredentialsJSON: `{"type":"authorized_user"}`}, nil)
	assert.ErrorContains(t, err, "parse service account")
}
