// Package ctxkeys carries the per-request trace id through the query
// pipeline. The API surface stamps every request (accepting an inbound
// X-Trace-Id or minting one) and the coordinator reads it back so log
// lines from routing, dispatch, and the domain agents correlate to one
// request.
package ctxkeys

import "context"

// contextKey is unexported so no other package can collide with it.
type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID returns a context carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID returns the trace id stored by WithTraceID, ok=false when the
// context carries none.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
