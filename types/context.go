package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyRequestID contextKey = "request_id"
	keyTraceID   contextKey = "trace_id"
	keyClientKey contextKey = "client_key"
	keyKeySlot   contextKey = "client_key_slot"
)

// WithRequestID adds the request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)
	return v, ok && v != ""
}

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

type clientKeySlot struct{ masked string }

// WithClientKeySlot installs a slot that a later WithClientKey on a derived
// context writes through, so ClientKey on ctx itself sees the value after the
// downstream handler returns.
func WithClientKeySlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, keyKeySlot, &clientKeySlot{})
}

// WithClientKey records the masked API key that authenticated the request.
func WithClientKey(ctx context.Context, masked string) context.Context {
	if slot, ok := ctx.Value(keyKeySlot).(*clientKeySlot); ok {
		slot.masked = masked
	}
	return context.WithValue(ctx, keyClientKey, masked)
}

// ClientKey extracts the masked API key from context.
func ClientKey(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(keyClientKey).(string); ok && v != "" {
		return v, true
	}
	if slot, ok := ctx.Value(keyKeySlot).(*clientKeySlot); ok && slot.masked != "" {
		return slot.masked, true
	}
	return "", false
}
