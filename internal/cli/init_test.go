package cli

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/config"
	"presupuesto/internal/log"
	"presupuesto/internal/sheets/memory"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "DEBUG", LogFormat: "json"}, log.ComponentWorker)
	assert.Equal(t, log.ComponentWorker, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, logger.Logger, slog.Default())
}

func TestNewExporterFallsBackToMemory(t *testing.T) {
	exp, err := NewExporter(context.Background(), &config.Config{}, log.New(log.DefaultConfig()))
	require.NoError(t, err)
	assert.IsType(t, &memory.Exporter{}, exp)
}

func TestNewExporterNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := NewExporter(context.Background(), &config.Config{GoogleSpreadsheetID: "abc"}, log.New(log.DefaultConfig()))
	assert.Error(t, err)
}
