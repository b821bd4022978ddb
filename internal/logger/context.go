package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext extracts the logger from the context, falling back to a
// no-op logger when none was stored.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
