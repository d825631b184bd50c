package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"presupuesto/internal/core"
	ports "presupuesto/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the tab closed months are appended to.
const DefaultSheetName = "Meses"

// closedAtLayout is parsed as a date-time by Sheets with USER_ENTERED input.
const closedAtLayout = "2006-01-02 15:04:05"

// Options configures the exporter. Credentials are taken from
// CredentialsJSON, then CredentialsFile, then GOOGLE_APPLICATION_CREDENTIALS.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.MonthExporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, opts Options) (*Exporter, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", opts.SpreadsheetID,
		"sheet", sheetNameOrDefault(opts.SheetName))
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	return &Exporter{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheetName:     sheetNameOrDefault(sheetName),
	}
}

func sheetNameOrDefault(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return DefaultSheetName
	}
	return name
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// monthRow lays out one closed month as a sheet row:
// name, income, total spent, saldo, expense count, merged, closed at.
func monthRow(s core.MonthSummary) []any {
	return []any{
		s.Name,
		s.Income.StringFixed(2),
		s.TotalSpent.StringFixed(2),
		s.Saldo.StringFixed(2),
		s.ExpenseCount,
		s.Merged,
		s.ClosedAt.UTC().Format(closedAtLayout),
	}
}

// ExportMonth appends the summary as a new row after the last filled row.
func (e *Exporter) ExportMonth(ctx context.Context, s core.MonthSummary) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(s.Name) == "" {
		return "", errors.New("month summary without name")
	}

	rng := fmt.Sprintf("%s!A:G", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{monthRow(s)}}

	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	ref := rng
	if resp != nil && resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}
