package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"presupuesto/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// HeaderRequestID is echoed back on every response.
	HeaderRequestID = "X-Request-ID"
)

// Middleware assigns request ids and logs every request.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger
	metrics   *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests    int64
	LastResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware. extractIP may be nil.
func NewMiddleware(extractIP func(*http.Request) string, logger *log.Logger) *Middleware {
	logger = logger.WithComponent(log.ComponentTrace)
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
		metrics:   &Metrics{},
	}
}

// Middleware returns HTTP middleware for request tracing. The request
// logger stored in the context carries the request id.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = GenerateRequestID()
		}

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		events := log.NewStructuredLogger(reqLogger)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, reqLogger)
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		events.LogHTTPStart(ctx, r, clientIP)
		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastResponseTime, duration.Microseconds())
		events.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&m.metrics.TotalRequests),
		LastResponseTime: atomic.LoadInt64(&m.metrics.LastResponseTime),
	}
}
