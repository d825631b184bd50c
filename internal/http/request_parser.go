// Package http serves the ledger: the rendered page, a JSON projection and
// one endpoint per user action.
//
// This file implements utilities for reading request data. Actions accept
// form-encoded bodies from the page and JSON bodies from scripts.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
)

// maxBodyBytes bounds every request body read by the parser.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// Query parameters are consulted last, so DELETE requests may carry the id
// in the URL.
type RequestBodyParser struct {
	body        []byte
	contentType string
	query       url.Values
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
		query:       r.URL.Query(),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed string value from the body (JSON or form), falling
// back to the query string.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		if vals, ok := p.formData[key]; ok && len(vals) > 0 {
			return sanitizeInput(vals[0])
		}
	}
	return sanitizeInput(p.query.Get(key))
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if _, ok := p.jsonData[key]; ok {
		return true
	}
	if _, ok := p.formData[key]; ok {
		return true
	}
	_, ok := p.query[key]
	return ok
}

// Amount parses key as money. field names the input in validation errors.
func (p *RequestBodyParser) Amount(key, field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: field, Err: err}
	}
	return d, nil
}

// Int64 parses key as a base-10 integer.
func (p *RequestBodyParser) Int64(key string) (int64, error) {
	v := p.Get(key)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: key, Err: fmt.Errorf("%q is not an integer", v)}
	}
	return n, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}
