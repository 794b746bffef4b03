// Package log offers context-aware logging helpers. Fields attached to a
// context with With or Set are appended to every entry logged with it.
package log

import (
	"context"
	"sync"

	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"go.uber.org/zap"
)

type ctxKey struct{}

// fieldBag is a mutable set of fields shared by every context derived from
// the one it was attached to, so callees can annotate the caller's log line.
type fieldBag struct {
	mu     sync.Mutex
	fields []any
}

func (b *fieldBag) add(kv ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fields = append(b.fields, kv...)
}

func (b *fieldBag) snapshot() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]any, len(b.fields))
	copy(out, b.fields)
	return out
}

func (b *fieldBag) lookup(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// later values win
	for i := len(b.fields) - 2; i >= 0; i -= 2 {
		if k, ok := b.fields[i].(string); ok && k == key {
			return b.fields[i+1], true
		}
	}
	return nil, false
}

func getBag(ctx context.Context) (*fieldBag, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(ctxKey{}).(*fieldBag)
	return b, ok
}

// With returns a child context carrying a new field bag seeded with the
// parent's fields plus kv.
func With(ctx context.Context, kv ...any) context.Context {
	var fields []any
	if b, ok := getBag(ctx); ok {
		fields = b.snapshot()
	}
	fields = append(fields, kv...)
	return context.WithValue(ctx, ctxKey{}, &fieldBag{fields: fields})
}

// Set appends fields to the bag attached to ctx. It is a no-op when ctx
// carries no bag.
func Set(ctx context.Context, kv ...any) {
	if b, ok := getBag(ctx); ok {
		b.add(kv...)
	}
}

// Value returns the latest value stored under key.
func Value(ctx context.Context, key string) (any, bool) {
	b, ok := getBag(ctx)
	if !ok {
		return nil, false
	}
	return b.lookup(key)
}

func sugar() *zap.SugaredLogger {
	return logger.Root().Unwrap().WithOptions(zap.AddCallerSkip(1))
}

func withFields(ctx context.Context, kv []any) []any {
	b, ok := getBag(ctx)
	if !ok {
		return kv
	}
	return append(b.snapshot(), kv...)
}

func Logw(ctx context.Context, level logger.Level, msg string, kv ...any) {
	sugar().Logw(level, msg, withFields(ctx, kv)...)
}

func Debugw(ctx context.Context, msg string, kv ...any) {
	sugar().Debugw(msg, withFields(ctx, kv)...)
}

func Infow(ctx context.Context, msg string, kv ...any) {
	sugar().Infow(msg, withFields(ctx, kv)...)
}

func Warnw(ctx context.Context, msg string, kv ...any) {
	sugar().Warnw(msg, withFields(ctx, kv)...)
}

func Errorw(ctx context.Context, msg string, kv ...any) {
	sugar().Errorw(msg, withFields(ctx, kv)...)
}

func Infof(ctx context.Context, template string, args ...any) {
	sugar().With(withFields(ctx, nil)...).Infof(template, args...)
}
