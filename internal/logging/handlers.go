package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider returns attributes that change while the process runs,
// such as the current interaction mode.
type ContextProvider func() []slog.Attr

// NewMultiHandler writes every record to each of handlers. Nil entries are
// skipped. A failing sink does not stop the others.
func NewMultiHandler(handlers ...slog.Handler) slog.Handler {
	f := fanout{}
	for _, h := range handlers {
		if h != nil {
			f = append(f, h)
		}
	}
	return f
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// NewContextHandler adds the provider's attributes to every record at the
// time it is logged.
func NewContextHandler(inner slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return inner
	}
	return &dynamicAttrs{inner: inner, provider: provider}
}

type dynamicAttrs struct {
	inner    slog.Handler
	provider ContextProvider
}

func (h *dynamicAttrs) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *dynamicAttrs) Handle(ctx context.Context, r slog.Record) error {
	if attrs := h.provider(); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *dynamicAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dynamicAttrs{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *dynamicAttrs) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &dynamicAttrs{inner: h.inner.WithGroup(name), provider: h.provider}
}
