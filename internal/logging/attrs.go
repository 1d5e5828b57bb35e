package logging

import (
	"context"
	"log/slog"
)

// Attribute shorthands so call sites read the same across packages.
func String(key, value string) slog.Attr { return slog.String(key, value) }
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

// Error renders a nil error as "<nil>" rather than dropping the key.
func Error(err error) slog.Attr {
	if err != nil {
		return slog.Any(FieldError, err)
	}
	return slog.String(FieldError, "<nil>")
}

func Args(attrs ...slog.Attr) []any {
	out := make([]any, len(attrs))
	for i := range attrs {
		out[i] = attrs[i]
	}
	return out
}

func NewNop() *slog.Logger { return slog.New(NoopHandler{}) }

// NewComponentLogger tags base (or a no-op logger when base is nil) with
// component.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = NewNop()
	}
	return base.With(FieldComponent, component)
}

// WarnEvent logs a recoverable problem. Every such warning names the event and
// tells the operator what to look at next.
func WarnEvent(logger *slog.Logger, msg, event, hint string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	if hint == "" {
		hint = "see the debug log for details"
	}
	attrs = append(attrs, slog.String(FieldEventType, event), slog.String(FieldErrorHint, hint))
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h NoopHandler) WithGroup(string) slog.Handler { return h }
