package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
	"presupuesto/internal/kv"
	"presupuesto/internal/log"
)

var errMissingField = errors.New("missing field")

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().BodyJSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the templates and, when it can be pinged, the store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch p := s.store.(type) {
	case nil:
		checks["store"] = "not_configured"
	case kv.Pinger:
		if err := p.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	default:
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.limiter.ActiveClients(),
	}
	checks["detail_cache"] = map[string]interface{}{
		"entries": s.ledger.Panels().Materialised(),
	}

	NewHTMXResponse().Status(httpStatus).BodyJSON(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics reports request, limiter and ledger counters in the
// Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	st := s.ledger.Snapshot()

	var buf bytes.Buffer
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(&buf, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_last_response_microseconds", "gauge", "Duration of the last response", traceMetrics.LastResponseTime)
	metric("rate_limit_hits_total", "counter", "Writes rejected by the rate limiter", limitMetrics.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	metric("ledger_expenses", "gauge", "Expenses in the current month", len(st.Expenses))
	metric("ledger_months_archived", "gauge", "Closed months in the history", len(st.History))
	metric("detail_cache_entries", "gauge", "Materialised month breakdowns", s.ledger.Panels().Materialised())
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.started).Seconds()))

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if s.templates == nil {
		logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", s.ledger.Page()); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpRender,
			"template", "index.html")
		InternalServerError("Error al mostrar la página").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

// handleLedger returns the current page projection as JSON.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	NewHTMXResponse().BodyJSON(s.ledger.Page()).Write(w)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpSetIncome, err)
		return
	}
	if !p.Has("income") {
		s.fail(w, r, log.OpSetIncome, &core.ValidationError{Field: "income", Err: errMissingField})
		return
	}

	// A cleared field means no income, any number (even negative) is kept.
	income := decimal.Zero
	if p.Get("income") != "" {
		if income, err = p.Amount("income", "income"); err != nil {
			s.fail(w, r, log.OpSetIncome, err)
			return
		}
	}
	if err := s.ledger.SetIncome(r.Context(), income); err != nil {
		s.fail(w, r, log.OpSetIncome, err)
		return
	}
	s.finish(w, r, log.OpSetIncome, NewHTMXResponse())
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpAddExpense, err)
		return
	}
	amount, err := p.Amount("amount", "amount")
	if err != nil {
		s.fail(w, r, log.OpAddExpense, err)
		return
	}
	e, err := s.ledger.AddExpense(r.Context(), amount, p.Get("category"), p.Get("description"))
	if err != nil {
		s.fail(w, r, log.OpAddExpense, err)
		return
	}
	s.finish(w, r, log.OpAddExpense, NewHTMXResponse().
		Status(http.StatusCreated).
		Header("X-Expense-ID", strconv.FormatInt(e.ID, 10)).
		TriggerSuccessNotification("Gasto agregado"))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpRemove, err)
		return
	}
	id, err := p.Int64("id")
	if err != nil {
		s.fail(w, r, log.OpRemove, err)
		return
	}
	removed, err := s.ledger.RemoveExpense(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRemove, err)
		return
	}
	b := NewHTMXResponse()
	if removed {
		b.TriggerSuccessNotification("Gasto eliminado")
	}
	s.finish(w, r, log.OpRemove, b)
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	res, err := s.ledger.CloseMonth(r.Context())
	if err != nil {
		s.fail(w, r, log.OpCloseMonth, err)
		return
	}
	s.finish(w, r, log.OpCloseMonth, NewHTMXResponse().
		TriggerMonthClosed(res.Label, res.Merged).
		TriggerSuccessNotification("Mes cerrado: "+res.Label))
}

func (s *Server) handleToggleMonth(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, err := parseBody(r)
	if err != nil {
		s.fail(w, r, log.OpToggle, err)
		return
	}
	index, err := p.Int64("index")
	if err != nil {
		s.fail(w, r, log.OpToggle, err)
		return
	}
	expanded, err := s.ledger.ToggleMonthDetail(r.Context(), int(index))
	if err != nil {
		s.fail(w, r, log.OpToggle, err)
		return
	}
	s.finish(w, r, log.OpToggle, NewHTMXResponse().
		Trigger("month:toggled", map[string]interface{}{"index": index, "expanded": expanded}))
}

func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, &core.ValidationError{Field: "body", Err: err}
	}
	return p, nil
}

// finish answers a successful action: API clients get the updated page,
// browsers are sent back to it.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, op string, b *HTMXResponseBuilder) {
	b.TriggerLedgerChanged(op)
	if wantsJSON(r) {
		b.BodyJSON(s.ledger.Page())
	} else {
		b.Redirect("/")
	}
	b.Write(w)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Action failed",
			log.FieldOperation, op,
			log.FieldError, err.Error())
	} else {
		logger.WarnContext(r.Context(), "Action rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err.Error())
	}
	s.errorResponse(r, status, userMessage(err)).Write(w)
}

func (s *Server) errorResponse(r *http.Request, status int, message string) *HTMXResponseBuilder {
	if wantsJSON(r) {
		return JSONErrorResponse(status, message)
	}
	return ErrorResponse(status, message).TriggerNotification(NotificationError, message, 5000)
}
