package services

import "context"

type contextKey string

const (
	sessionIDKey contextKey = "session_id"
	itemIDKey    contextKey = "item_id"
	workerKey    contextKey = "worker"
)

// WithSessionID annotates context with the import session identifier.
func WithSessionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the import session identifier if present.
func SessionIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(sessionIDKey).(int64); ok {
		return v, true
	}
	return 0, false
}

// WithItemID annotates context with the selection item identifier.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the selection item identifier if present.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(itemIDKey).(int64); ok {
		return v, true
	}
	return 0, false
}

// WithWorker annotates context with the claiming worker's identifier.
func WithWorker(ctx context.Context, worker string) context.Context {
	if worker == "" {
		return ctx
	}
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext extracts the worker identifier if present.
func WorkerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(workerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
