package logging

import (
	"context"
	"errors"
	"log/slog"
	"math"
)

const (
	minLevel = slog.Level(math.MinInt32)
	maxLevel = slog.Level(math.MaxInt32)
)

// route sends records whose level lies in [min, max) to handler.
type route struct {
	handler slog.Handler
	min     slog.Level
	max     slog.Level
}

func levelBand(h slog.Handler, min, max slog.Level) route {
	return route{handler: h, min: min, max: max}
}

func allLevels(h slog.Handler) route {
	return route{handler: h, min: minLevel, max: maxLevel}
}

func (r route) accepts(ctx context.Context, level slog.Level) bool {
	return level >= r.min && level < r.max && r.handler.Enabled(ctx, level)
}

// routeHandler is how one logger writes INFO to stdout, WARN to stderr and
// everything to the log file.
type routeHandler struct {
	routes []route
}

func newRouter(routes ...route) slog.Handler {
	kept := make([]route, 0, len(routes))
	for _, r := range routes {
		if r.handler != nil && r.min < r.max {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return NoopHandler{}
	}
	return &routeHandler{routes: kept}
}

func (h *routeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, r := range h.routes {
		if r.accepts(ctx, level) {
			return true
		}
	}
	return false
}

func (h *routeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, r := range h.routes {
		if !r.accepts(ctx, record.Level) {
			continue
		}
		if err := r.handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *routeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *routeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *routeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]route, len(h.routes))
	for i, r := range h.routes {
		next[i] = route{handler: fn(r.handler), min: r.min, max: r.max}
	}
	return &routeHandler{routes: next}
}
