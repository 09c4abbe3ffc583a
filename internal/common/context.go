package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyIntentID  contextKey = "intent_id"
	ContextKeyUserID    contextKey = "user_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithIntentID adds the submission intent ID to the context
func WithIntentID(ctx context.Context, intentID string) context.Context {
	return context.WithValue(ctx, ContextKeyIntentID, intentID)
}

// IntentIDFromContext extracts the intent ID from context
func IntentIDFromContext(ctx context.Context) string {
	if intentID, ok := ctx.Value(ContextKeyIntentID).(string); ok {
		return intentID
	}
	return ""
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
