package logging

import (
	"context"
	"errors"
	"log/slog"
)

// AttrFunc returns attributes evaluated at log time, such as the current
// track and session.
type AttrFunc func() []slog.Attr

// FanoutHandler delivers every record to each sink enabled for its level.
type FanoutHandler struct {
	sinks []slog.Handler
}

// NewFanoutHandler creates a fan-out over sinks, skipping nil ones.
func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	f := &FanoutHandler{sinks: make([]slog.Handler, 0, len(sinks))}
	for _, h := range sinks {
		if h != nil {
			f.sinks = append(f.sinks, h)
		}
	}
	return f
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes r to every enabled sink. A failing sink does not stop the
// others; their errors are joined.
func (f *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *FanoutHandler) derive(fn func(slog.Handler) slog.Handler) *FanoutHandler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		sinks[i] = fn(h)
	}
	return &FanoutHandler{sinks: sinks}
}

// DynamicHandler appends the attributes of an AttrFunc to each record
// before passing it on.
type DynamicHandler struct {
	next  slog.Handler
	attrs AttrFunc
}

// NewDynamicHandler wraps next. A nil attrs makes it a pass-through.
func NewDynamicHandler(next slog.Handler, attrs AttrFunc) *DynamicHandler {
	return &DynamicHandler{next: next, attrs: attrs}
}

func (h *DynamicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *DynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.attrs != nil {
		if attrs := h.attrs(); len(attrs) > 0 {
			r.AddAttrs(attrs...)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *DynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DynamicHandler{next: h.next.WithAttrs(attrs), attrs: h.attrs}
}

func (h *DynamicHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &DynamicHandler{next: h.next.WithGroup(name), attrs: h.attrs}
}
