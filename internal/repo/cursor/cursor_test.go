package cursor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "last_update"))
		offset, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), offset)
	})

	t.Run("save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_update")
		s := NewFileStore(path)
		require.NoError(t, s.Save(ctx, 8128))

		offset, err := NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(8128), offset)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "8128", string(data))
	})

	t.Run("trailing newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_update")
		require.NoError(t, os.WriteFile(path, []byte("77\nignored\n"), 0o644))

		offset, err := NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(77), offset)
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "last_update")
		require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

		offset, err := NewFileStore(path).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), offset)
	})

	t.Run("negative", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "last_update"))
		assert.Error(t, s.Save(ctx, -1))
	})
}
