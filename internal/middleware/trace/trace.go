// Package trace tags every request with an id, logs its start and
// completion and records it in the request metrics.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"kharcha/internal/log"
	"kharcha/internal/metrics"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader is honoured on the way in and echoed on the way out.
	RequestIDHeader = "X-Request-ID"

	// unmatchedRoute labels requests no pattern matched.
	unmatchedRoute = "unmatched"
)

type Middleware struct {
	base      *log.Logger
	logger    *log.Logger
	metrics   *metrics.Metrics
	extractIP func(*http.Request) string
}

// NewMiddleware returns the tracing middleware. logger and m may be nil.
func NewMiddleware(logger *log.Logger, m *metrics.Metrics, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Middleware{
		base:      logger,
		logger:    logger.WithComponent(log.ComponentHTTP),
		metrics:   m,
		extractIP: extractIP,
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		// One copy of r travels down the chain so the pattern ServeMux
		// records on it is visible here afterwards.
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(log.RequestContext(ctx, m.base, requestID))

		m.logger.DebugContext(r.Context(), "HTTP request started",
			log.NewFields().
				Add(log.FieldRequestID, requestID).
				Add(log.FieldClientIP, clientIP).
				WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))...)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		// ServeMux fills in Pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		m.metrics.ObserveRequest(r.Method, route, rw.statusCode, duration)

		m.logger.Log(r.Context(), levelFor(rw.statusCode), "HTTP request completed",
			log.NewFields().
				Add(log.FieldRequestID, requestID).
				Add(log.FieldClientIP, clientIP).
				Add("route", route).
				WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				WithResponse(rw.statusCode, duration.Milliseconds())...)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
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

// RequestID reads the id the middleware stored on r.
func RequestID(r *http.Request) string {
	return GetRequestID(r.Context())
}
