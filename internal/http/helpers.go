package http

import (
	"errors"
	"net/http"
	"strings"

	"presupuesto/internal/core"
	"presupuesto/internal/services"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// wantsJSON reports whether the client asked for a JSON answer instead of
// being sent back to the page.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNothingToClose):
		return http.StatusConflict
	case errors.Is(err, services.ErrMonthNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for err. Internal failures are not echoed.
func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusUnprocessableEntity:
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return "Dato inválido: " + ve.Field
		}
		return "Ingresá un monto válido y una categoría"
	case http.StatusConflict:
		return "No hay datos para cerrar el mes"
	case http.StatusNotFound:
		return "Mes no encontrado"
	default:
		return "Error al guardar los datos"
	}
}
