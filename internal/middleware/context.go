package middleware

import (
	"context"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIsHTMX
	ctxKeySession
	ctxKeyLocaleFB
)

// WithRequestID stores the chi request id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRequestID).(string)
	return v, ok
}

func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether the page should answer with the shell fragment only.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}
