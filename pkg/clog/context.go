package clog

import (
	"context"
	"maps"
	"sync"
)

const (
	ErrorAttributeKey = "error.message"
	StackAttributeKey = "error.stack"
)

type bag struct {
	mu    sync.RWMutex
	attrs map[string]any
}

type bagKey struct{}

// ContextWithSlog attaches an empty attribute bag to ctx. Attributes added
// later through any derived context end up on the records logged with it.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, bagKey{}, &bag{attrs: map[string]any{}})
}

func bagFrom(ctx context.Context) *bag {
	b, _ := ctx.Value(bagKey{}).(*bag)
	return b
}

func AddAttribute(ctx context.Context, key string, value any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attrs[key] = value
}

func AddAttributes(ctx context.Context, attrs map[string]any) {
	b := bagFrom(ctx)
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merge(b.attrs, attrs)
}

// Attribute returns the value stored under key, or the zero value when it
// is missing or of another type.
func Attribute[T any](ctx context.Context, key string) T {
	var zero T
	b := bagFrom(ctx)
	if b == nil {
		return zero
	}
	b.mu.RLock()
	v, ok := b.attrs[key]
	b.mu.RUnlock()
	if !ok {
		return zero
	}
	t, ok := v.(T)
	if !ok {
		return zero
	}
	return t
}

// Attributes returns a copy of the bag, nil when ctx carries none.
func Attributes(ctx context.Context) map[string]any {
	b := bagFrom(ctx)
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.attrs)
}

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func Error(ctx context.Context) error {
	return Attribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func Stack(ctx context.Context) string {
	return Attribute[string](ctx, StackAttributeKey)
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if d, ok := dst[k].(map[string]any); ok {
			merge(d, sub)
		} else {
			dst[k] = sub
		}
	}
}
