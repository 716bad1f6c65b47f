package clog

import (
	"context"
	"log/slog"
)

// AttributesHandler copies the attributes collected on the request context
// into every record it passes on.
type AttributesHandler struct {
	next slog.Handler
}

func NewAttributesHandler(next slog.Handler) *AttributesHandler {
	return &AttributesHandler{next: next}
}

func (h *AttributesHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AttributesHandler) Handle(ctx context.Context, record slog.Record) error {
	if attrs := Attributes(ctx); len(attrs) > 0 {
		out := make([]slog.Attr, 0, len(attrs))
		for k, v := range attrs {
			out = append(out, slog.Any(k, v))
		}
		record.AddAttrs(out...)
	}
	return h.next.Handle(ctx, record)
}

func (h *AttributesHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AttributesHandler{next: h.next.WithAttrs(attrs)}
}

func (h *AttributesHandler) WithGroup(name string) slog.Handler {
	return &AttributesHandler{next: h.next.WithGroup(name)}
}
