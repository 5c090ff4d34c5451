package logging

import (
	"context"
	"log/slog"
)

// route is one log destination. min, when set, raises the destination's
// threshold above the logger-wide level.
type route struct {
	handler slog.Handler
	min     slog.Leveler
}

func (r route) accepts(ctx context.Context, level slog.Level) bool {
	if r.min != nil && level < r.min.Level() {
		return false
	}
	return r.handler.Enabled(ctx, level)
}

// router sends each record to every route that accepts its level.
type router struct {
	routes []route
}

func newRouter(routes ...route) slog.Handler {
	kept := make([]route, 0, len(routes))
	for _, r := range routes {
		if r.handler != nil {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return slog.DiscardHandler
	}
	return &router{routes: kept}
}

func (h *router) Enabled(ctx context.Context, level slog.Level) bool {
	for _, r := range h.routes {
		if r.accepts(ctx, level) {
			return true
		}
	}
	return false
}

func (h *router) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	last := len(h.routes) - 1
	for i, r := range h.routes {
		if !r.accepts(ctx, record.Level) {
			continue
		}
		rec := record
		if i < last {
			rec = record.Clone()
		}
		if err := r.handler.Handle(ctx, rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *router) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *router) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *router) derive(fn func(slog.Handler) slog.Handler) *router {
	routes := make([]route, len(h.routes))
	for i, r := range h.routes {
		routes[i] = route{handler: fn(r.handler), min: r.min}
	}
	return &router{routes: routes}
}
