package clog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
)

type textConfig struct {
	color bool
	level slog.Leveler
}

type TextOption func(*textConfig)

func WithColor(on bool) TextOption {
	return func(cfg *textConfig) { cfg.color = on }
}

func WithLevel(level slog.Leveler) TextOption {
	return func(cfg *textConfig) { cfg.level = level }
}

// TextHandler is a human oriented handler for local runs. Request columns
// (proto, method, path, status) lead the line, the rest of the attributes
// follow one per line in key order.
type TextHandler struct {
	cfg   textConfig
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

func NewTextHandler(w io.Writer, opts ...TextOption) *TextHandler {
	cfg := textConfig{color: true, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, mu: &sync.Mutex{}, w: w}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.cfg.level.Level()
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(slices.Clone(h.attrs), h.qualify(attrs)...)
	return &nh
}

func (h *TextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	if nh.group != "" {
		nh.group += "."
	}
	nh.group += name
	return &nh
}

func (h *TextHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	kv := map[string]slog.Value{}
	for _, a := range h.attrs {
		kv[a.Key] = a.Value
	}
	var recAttrs []slog.Attr
	record.Attrs(func(a slog.Attr) bool {
		recAttrs = append(recAttrs, a)
		return true
	})
	for _, a := range h.qualify(recAttrs) {
		kv[a.Key] = a.Value
	}

	plain := color.New()
	levelColor := color.New(levelAttr(record.Level))
	msgColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)
	for _, c := range []*color.Color{plain, levelColor, msgColor, errColor} {
		if h.cfg.color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := plain.Fprintf(h.w, "%s ", record.Time.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("can't write time: %w", err)
	}
	if _, err := levelColor.Fprintf(h.w, "%s ", record.Level); err != nil {
		return fmt.Errorf("can't write level: %w", err)
	}
	for _, key := range []string{"proto", "method", "path", "status"} {
		v, ok := kv[key]
		if !ok {
			continue
		}
		delete(kv, key)
		if _, err := plain.Fprintf(h.w, "%s ", v); err != nil {
			return fmt.Errorf("can't write %s: %w", key, err)
		}
	}
	if _, err := msgColor.Fprint(h.w, record.Message); err != nil {
		return fmt.Errorf("can't write message: %w", err)
	}
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		if _, err := errColor.Fprintf(h.w, " %s", e); err != nil {
			return fmt.Errorf("can't write error: %w", err)
		}
	}
	if _, err := fmt.Fprintln(h.w); err != nil {
		return err
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := plain.Fprintf(h.w, "    %s=%s\n", k, kv[k]); err != nil {
			return fmt.Errorf("can't write %s: %w", k, err)
		}
	}
	return nil
}

func levelAttr(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	default:
		return color.FgCyan
	}
}
