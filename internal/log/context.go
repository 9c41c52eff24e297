package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or one wrapping the slog
// default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{
		Logger:    slog.Default().With(FieldComponent, ComponentApp),
		base:      slog.Default(),
		component: ComponentApp,
	}
}

// RequestContext returns ctx carrying an HTTP component logger tagged
// with requestID.
func RequestContext(ctx context.Context, base *Logger, requestID string) context.Context {
	l := base.WithComponent(ComponentHTTP)
	if requestID != "" {
		l = l.With(FieldRequestID, requestID)
	}
	return WithContext(ctx, l)
}
