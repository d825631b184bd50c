// Package worker turns month-closed events into spreadsheet rows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"

	"presupuesto/internal/amqp"
	"presupuesto/internal/cache"
	"presupuesto/internal/log"
	"presupuesto/internal/sheets"
)

const (
	seenCapacity = 1024
	seenTTL      = 24 * time.Hour
)

// ExportWorker exports each closed month once, retrying transient failures.
type ExportWorker struct {
	exporter sheets.MonthExporter
	attempts uint
	delay    time.Duration
	logger   *log.Logger
	seen     *cache.LRUCache[string]
}

func NewExportWorker(exporter sheets.MonthExporter, attempts int, delay time.Duration, logger *log.Logger) *ExportWorker {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		exporter: exporter,
		attempts: uint(attempts),
		delay:    delay,
		logger:   logger.WithComponent(log.ComponentWorker),
		seen:     cache.NewLRUCache[string](seenCapacity, seenTTL),
	}
}

// Seen exposes the redelivery cache so it can be swept.
func (w *ExportWorker) Seen() *cache.LRUCache[string] { return w.seen }

// HandleMonthClosed exports the month carried by msg. A message whose event
// id was already exported is acknowledged without exporting again.
func (w *ExportWorker) HandleMonthClosed(ctx context.Context, msg *amqp.MonthClosedMessage) error {
	if ref, ok := w.seen.Get(msg.EventID); ok {
		w.logger.InfoContext(ctx, "Month already exported, skipping",
			log.FieldEventID, msg.EventID, log.FieldMonthName, msg.Name, log.FieldSheetsRef, ref)
		return nil
	}

	summary := msg.Summary()
	var ref string
	err := retry.Do(
		func() error {
			var err error
			ref, err = w.exporter.ExportMonth(ctx, summary)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			w.logger.WarnContext(ctx, "Export failed, will retry",
				log.FieldOperation, log.OpExport,
				log.FieldEventID, msg.EventID,
				log.FieldMonthName, msg.Name,
				"attempt", n+1,
				log.FieldError, err.Error())
		}),
	)
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("export month %s: %w: %w", msg.Name, amqp.ErrPermanent, err)
		}
		return fmt.Errorf("export month %s: %w", msg.Name, err)
	}

	w.seen.Set(msg.EventID, ref)
	w.logger.InfoContext(ctx, "Month exported",
		log.FieldEventID, msg.EventID,
		log.FieldMonthName, msg.Name,
		log.FieldMerged, msg.Merged,
		log.FieldSheetsRef, ref)
	return nil
}

// isRetryable treats rate limiting and server errors from the Sheets API as
// transient, other API errors as permanent. Unknown errors are retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}

// isPermanent reports a Sheets API error that another delivery would hit
// again, such as a bad range or a sheet the account may not write.
func isPermanent(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && !isRetryable(apiErr)
}
