package sheets

import (
	"context"

	"presupuesto/internal/core"
)

// MonthExporter writes the summary of a closed month to an external
// spreadsheet and returns a reference to the written row.
type MonthExporter interface {
	ExportMonth(ctx context.Context, s core.MonthSummary) (ref string, err error)
}
