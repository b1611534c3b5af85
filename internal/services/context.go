package services

import "context"

type contextKey string

const (
	feedKey      contextKey = "feed"
	stageKey     contextKey = "stage"
	pidKey       contextKey = "pid"
	requestIDKey contextKey = "request_id"
)

// WithFeed annotates context with the configured feed name.
func WithFeed(ctx context.Context, feed string) context.Context {
	if feed == "" {
		return ctx
	}
	return context.WithValue(ctx, feedKey, feed)
}

// FeedFromContext returns the feed name if present.
func FeedFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(feedKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the workflow stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPID annotates context with the programme identifier being processed.
func WithPID(ctx context.Context, pid string) context.Context {
	if pid == "" {
		return ctx
	}
	return context.WithValue(ctx, pidKey, pid)
}

// PIDFromContext returns the programme identifier if present.
func PIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(pidKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
