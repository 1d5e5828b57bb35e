package services

import "context"

type contextKey string

const (
	runIDKey          contextKey = "run_id"
	componentKey      contextKey = "component"
	notificationIDKey contextKey = "notification_id"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithComponent annotates context with the pipeline component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(componentKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithNotificationID annotates context with the notification being processed.
func WithNotificationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, notificationIDKey, id)
}

// NotificationIDFromContext returns the notification identifier if present.
func NotificationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(notificationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
