package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"presupuesto/internal/core"
)

func summary() core.MonthSummary {
	return core.MonthSummary{
		Name:         "Marzo 2025",
		Income:       decimal.RequireFromString("1500"),
		TotalSpent:   decimal.RequireFromString("420.5"),
		Saldo:        decimal.RequireFromString("1079.5"),
		ExpenseCount: 4,
		Merged:       true,
		ClosedAt:     time.Date(2025, 3, 31, 21, 15, 0, 0, time.UTC),
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestLoadCredentials(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600))

	t.Run("inline wins", func(t *testing.T) {
		b, err := loadCredentials(ctx, Options{CredentialsJSON: ` {"a":1} `, CredentialsFile: file})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(b))
	})

	t.Run("file", func(t *testing.T) {
		b, err := loadCredentials(ctx, Options{CredentialsFile: file})
		require.NoError(t, err)
		assert.Contains(t, string(b), "service_account")
	})

	t.Run("application default path", func(t *testing.T) {
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", file)
		b, err := loadCredentials(ctx, Options{})
		require.NoError(t, err)
		assert.NotEmpty(t, b)
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := loadCredentials(ctx, Options{CredentialsFile: filepath.Join(dir, "nope.json")})
		assert.Error(t, err)
	})
}

func TestMonthRow(t *testing.T) {
	row := monthRow(summary())
	assert.Equal(t, []any{"Marzo 2025", "1500.00", "420.50", "1079.50", 4, true, "2025-03-31 21:15:00"}, row)
}

func TestSheetNameDefault(t *testing.T) {
	assert.Equal(t, DefaultSheetName, NewWithService(nil, "id", "  ").sheetName)
	assert.Equal(t, "Historial", NewWithService(nil, "id", "Historial").sheetName)
}

func TestExportMonth_NoService(t *testing.T) {
	_, err := NewWithService(nil, "id", "").ExportMonth(context.Background(), summary())
	assert.Error(t, err)
}

func TestExportMonth_AppendsRow(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody gsheet.ValueRange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"Meses!A7:G7","updatedRows":1}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)

	ref, err := NewWithService(svc, "sheet-id", "").ExportMonth(context.Background(), summary())
	require.NoError(t, err)
	assert.Equal(t, "Meses!A7:G7", ref)

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-id/values/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, "Marzo 2025", gotBody.Values[0][0])
	assert.Equal(t, "420.50", gotBody.Values[0][2])
}

func TestExportMonth_RejectsUnnamedMonth(t *testing.T) {
	svc, err := gsheet.NewService(context.Background(), goption.WithoutAuthentication())
	require.NoError(t, err)
	_, err = NewWithService(svc, "id", "").ExportMonth(context.Background(), core.MonthSummary{})
	assert.Error(t, err)
}
