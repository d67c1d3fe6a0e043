// Package google appends expense audit rows to a Google Sheets
// spreadsheet using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"contabile/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ sheets.AuditWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// Application Default Credentials.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Expenses"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	var opts []goption.ClientOption
	switch {
	case serviceAccountJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		opts = append(opts, goption.WithCredentialsFile(serviceAccountFile))
	default:
		// Fall through to Application Default Credentials.
		slog.InfoContext(ctx, "No service account configured, using application default credentials")
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendAuditRow appends one audit line to the configured sheet.
func (c *Client) AppendAuditRow(ctx context.Context, row sheets.AuditRow) error {
	values := &gsheet.ValueRange{
		Values: [][]any{{
			row.Timestamp.UTC().Format(time.RFC3339),
			row.Event,
			strconv.FormatInt(row.ExpenseID, 10),
			strconv.FormatInt(row.UserID, 10),
			row.Category,
			row.Amount.String(),
			row.Date.String(),
			row.Status,
			row.Description,
		}},
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A:I", values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(cctx).
		Do()
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	slog.DebugContext(ctx, "Audit row appended",
		"event", row.Event,
		"expense_id", row.ExpenseID,
		"sheet", c.sheetName)
	return nil
}
