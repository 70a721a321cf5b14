package logger

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying id. The gateway copies it into
// the X-Request-ID header of outbound calls; loggers bound to the context
// add it to every entry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
