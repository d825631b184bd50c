// This file implements the Builder Pattern for constructing responses. It
// provides a fluent API for HX-Trigger headers, JSON and HTML bodies, and
// consistent error formatting.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder provides a fluent API for building responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerLedgerChanged tells the client the ledger was modified.
func (b *HTMXResponseBuilder) TriggerLedgerChanged(op string) *HTMXResponseBuilder {
	return b.Trigger("ledger:changed", map[string]string{"operation": op})
}

// TriggerMonthClosed carries the archived month label and whether it was
// merged into an existing record.
func (b *HTMXResponseBuilder) TriggerMonthClosed(name string, merged bool) *HTMXResponseBuilder {
	return b.Trigger("month:closed", map[string]interface{}{"name": name, "merged": merged})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]interface{}{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// BodyJSON encodes v as the response body. An encoding failure turns the
// response into a 500.
func (b *HTMXResponseBuilder) BodyJSON(v interface{}) *HTMXResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"error":"encoding response"}`)
	}
	b.headers["Content-Type"] = "application/json"
	b.body = append(data, '\n')
	return b
}

// Redirect answers with 303 See Other to location.
func (b *HTMXResponseBuilder) Redirect(location string) *HTMXResponseBuilder {
	b.statusCode = http.StatusSeeOther
	b.headers["Location"] = location
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// JSONErrorResponse is ErrorResponse for API clients.
func JSONErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyJSON(map[string]string{"error": message})
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
