package logging

import (
	"context"

	"go.uber.org/zap"
)

// Request-scoped loggers travel on the context so every layer emits the
// same trace fields without threading a logger through each signature.

type ctxKey struct{}

// ContextWithLogger attaches logger to ctx. A nil logger leaves the
// context untouched.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the process-wide
// zap.L() when none is.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return zap.L()
	}
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.L()
}
