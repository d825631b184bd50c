package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/core"
)

func TestExporterAppends(t *testing.T) {
	e := New()
	ref, err := e.ExportMonth(context.Background(), core.MonthSummary{Name: "Enero 2025"})
	require.NoError(t, err)
	assert.Equal(t, "memory!1", ref)

	ref, err = e.ExportMonth(context.Background(), core.MonthSummary{Name: "Febrero 2025"})
	require.NoError(t, err)
	assert.Equal(t, "memory!2", ref)

	rows := e.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Febrero 2025", rows[1].Name)
}

func TestExporterRejects(t *testing.T) {
	e := New()
	_, err := e.ExportMonth(context.Background(), core.MonthSummary{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ExportMonth(ctx, core.MonthSummary{Name: "Enero 2025"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, e.Rows())
}
