package core

import "context"

type contextKey string

const ctxKeyLoadID contextKey = "load_id"

// ContextWithLoadID tags ctx with the id of the dataset load it belongs to.
func ContextWithLoadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyLoadID, id)
}

// LoadIDFromContext extracts the load id from context.
func LoadIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyLoadID).(string); ok {
		return v
	}
	return ""
}
