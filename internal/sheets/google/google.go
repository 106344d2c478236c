// Package google mirrors the consumption ledger into a Google Sheets
// spreadsheet. The sheet is a read-only backup: SQLite stays authoritative
// and the worker pushes changes one entry at a time.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"kaffee/internal/core"
	ports "kaffee/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
}

// Ensure interface conformance
var _ ports.Mirror = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_NAME (default "Consumption"), plus service account
// credentials via GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Consumption"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		entriesSheet:  sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"credentials_size", len(credentialsJSON))
	return service, nil
}

// AppendEntry writes one joined row at the bottom of the mirror sheet and
// returns the written range as a reference.
func (c *Client) AppendEntry(ctx context.Context, row core.ConsumptionRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Find the next empty row by reading the id column first.
	rng := fmt.Sprintf("%s!A:A", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.entriesSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:E%d", c.entriesSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{entryRowValues(row)}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

// RemoveEntry blanks the mirrored row whose id column matches entryID. A row
// that is not in the mirror is not an error: the entry may never have synced.
func (c *Client) RemoveEntry(ctx context.Context, entryID int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read id column of %s: %w", c.entriesSheet, err)
	}

	rowIndex := findEntryRow(resp.Values, entryID)
	if rowIndex < 0 {
		slog.InfoContext(ctx, "Entry not present in mirror, nothing to remove",
			"id", entryID, "sheet", c.entriesSheet)
		return nil
	}

	clearRange := fmt.Sprintf("%s!A%d:E%d", c.entriesSheet, rowIndex+1, rowIndex+1)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	return nil
}

// entryRowValues lays out one mirror row: id, date, cups, variety, total
// caffeine in mg.
func entryRowValues(row core.ConsumptionRow) []any {
	return []any{
		row.EntryID,
		row.Date.String(),
		row.Cups,
		row.Variety,
		row.TotalCaffeine,
	}
}

// findEntryRow returns the 0-based index of the row whose first cell equals
// entryID, or -1 when absent.
func findEntryRow(values [][]any, entryID int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		raw := strings.TrimSpace(fmt.Sprint(row[0]))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if id == entryID {
			return i
		}
	}
	return -1
}
