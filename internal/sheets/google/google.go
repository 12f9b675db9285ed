package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"fintrack/internal/events"
	ports "fintrack/internal/sheets"

	"golang.org/x/oauth2"
	gauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *slog.Logger

	mu      sync.Mutex
	sheetID *int64
}

// Ensure interface conformance
var _ ports.EntrySink = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Credentials come from cfg.CredentialsJSON, cfg.CredentialsFile or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Ledger"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		logger:        logger,
	}
}

func readCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, cfg Config, logger *slog.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}

	jwtCfg, err := gauth.JWTConfigFromJSON(credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}

	// Token refreshes and API calls share the pooled transport.
	base := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(jwtCfg.Client(base)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "Google Sheets service created",
			"service_account", jwtCfg.Email,
			"scope", gsheet.SpreadsheetsScope)
	}
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API
// with connection pooling and keep-alive.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// AppendEntry appends one row for the entry. The header row is written first
// when the sheet is empty, and nothing is written if the entry is already there.
func (c *Client) AppendEntry(ctx context.Context, kind events.Kind, id int64, entry events.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values, err := c.readKeys(ctx)
	if err != nil {
		return err
	}
	if findEntryRow(values, kind, id) >= 0 {
		c.logger.DebugContext(ctx, "Row already present", "kind", kind, "entry_id", id)
		return nil
	}

	var rows [][]any
	if len(values) == 0 {
		rows = append(rows, toCells(ports.Header))
	}
	rows = append(rows, toCells(ports.Row(kind, id, entry)))

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	return nil
}

// RemoveEntry deletes the row holding kind and id. A missing row is not an error.
func (c *Client) RemoveEntry(ctx context.Context, kind events.Kind, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values, err := c.readKeys(ctx)
	if err != nil {
		return err
	}
	idx := findEntryRow(values, kind, id)
	if idx < 0 {
		c.logger.DebugContext(ctx, "Row already absent", "kind", kind, "entry_id", id)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx) + 1,
					// StartIndex 0 is dropped by the JSON encoder otherwise.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d from sheet %s: %w", idx+1, c.sheetName, err)
	}
	return nil
}

func (c *Client) readKeys(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}

	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && strings.EqualFold(s.Properties.Title, c.sheetName) {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

// findEntryRow returns the zero-based index of the row for kind and id, or -1.
func findEntryRow(values [][]any, kind events.Kind, id int64) int {
	for i, row := range values {
		if ports.Matches(row, kind, id) {
			return i
		}
	}
	return -1
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
