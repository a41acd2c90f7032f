package logger

import "context"

type ctxKey struct{}

// ContextWithCorrelationID stores a run's correlation id; empty ids are ignored.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// CorrelationIDFromContext returns the stored id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
