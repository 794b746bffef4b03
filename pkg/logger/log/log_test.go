package log_test

import (
	"context"
	"sync"
	"testing"

	"github.com/nguyentranbao-ct/ehbot/pkg/logger/log"
	"github.com/stretchr/testify/assert"
)

func TestFieldBag(t *testing.T) {
	t.Parallel()

	t.Run("set without bag is a no-op", func(t *testing.T) {
		ctx := context.Background()
		log.Set(ctx, "command", "tag")
		_, ok := log.Value(ctx, "command")
		assert.False(t, ok)
	})

	t.Run("callee annotates caller context", func(t *testing.T) {
		ctx := log.With(context.Background(), "update_id", int64(7))
		func(inner context.Context) {
			log.Set(inner, "command", "tag")
		}(ctx)

		v, ok := log.Value(ctx, "command")
		assert.True(t, ok)
		assert.Equal(t, "tag", v)

		id, ok := log.Value(ctx, "update_id")
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
	})

	t.Run("later values win", func(t *testing.T) {
		ctx := log.With(context.Background(), "command", "help")
		log.Set(ctx, "command", "tldr")
		v, _ := log.Value(ctx, "command")
		assert.Equal(t, "tldr", v)
	})

	t.Run("child bag does not leak into parent", func(t *testing.T) {
		parent := log.With(context.Background(), "a", 1)
		child := log.With(parent, "b", 2)
		log.Set(child, "c", 3)

		_, ok := log.Value(parent, "b")
		assert.False(t, ok)
		_, ok = log.Value(parent, "c")
		assert.False(t, ok)
		v, ok := log.Value(child, "a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})
}

func TestConcurrentSet(t *testing.T) {
	t.Parallel()
	ctx := log.With(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				log.Set(ctx, "n", n)
				_, _ = log.Value(ctx, "n")
			}
		}(i)
	}
	wg.Wait()

	_, ok := log.Value(ctx, "n")
	assert.True(t, ok)
}
