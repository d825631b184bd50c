// Package cli provides common initialization for cmd/presupuesto and
// cmd/presupuesto-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"presupuesto/internal/config"
	"presupuesto/internal/log"
	"presupuesto/internal/sheets"
	"presupuesto/internal/sheets/google"
	"presupuesto/internal/sheets/memory"
)

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the configuration, sets up logging and exits
// the process when the configuration is invalid.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured and the in-memory exporter otherwise.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.MonthExporter, error) {
	logger = logger.WithComponent(log.ComponentSheets)
	if cfg.GoogleSpreadsheetID == "" {
		logger.WarnContext(ctx, "GOOGLE_SPREADSHEET_ID not set, exporting to memory only")
		return memory.New(), nil
	}
	exp, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Google Sheets exporter ready", "sheet", cfg.GoogleSheetName)
	return exp, nil
}
