// Package memory provides an in-process MonthExporter used when no
// spreadsheet is configured.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"presupuesto/internal/core"
	ports "presupuesto/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows []core.MonthSummary
}

var _ ports.MonthExporter = (*Exporter)(nil)

func New() *Exporter { return &Exporter{} }

func (e *Exporter) ExportMonth(ctx context.Context, s core.MonthSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Name == "" {
		return "", errors.New("month summary without name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, s)
	return fmt.Sprintf("memory!%d", len(e.rows)), nil
}

// Rows returns a copy of everything exported so far.
func (e *Exporter) Rows() []core.MonthSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.MonthSummary(nil), e.rows...)
}
