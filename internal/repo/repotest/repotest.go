// Package repotest runs the behaviour every repo.Store backend must share.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener opens the backend under test. Consecutive calls must reach the same
// underlying data.
type Opener func(ctx context.Context) (repo.Store, error)

func sampleChat(id string, n int) *models.Chat {
	admin := "58699815"
	chat := models.NewChat(id, &admin)
	for i := 0; i < n; i++ {
		chat.AddTag(models.Tag{
			Text: fmt.Sprintf("tag %d", i),
			Author: models.User{
				ID:        fmt.Sprint(100 + i),
				FirstName: "Ana",
				Username:  fmt.Sprintf("ana%d", i),
			},
			CreatedAt: time.Unix(1_700_000_000+int64(i)*60, 0).UTC(),
		}, models.DefaultMaxTags)
	}
	return chat
}

// Run exercises open against the shared store contract.
func Run(t *testing.T, open Opener) {
	t.Helper()
	ctx := context.Background()

	store, err := open(ctx)
	require.NoError(t, err)

	t.Run("missing chat", func(t *testing.T) {
		_, err := store.GetChat(ctx, "does-not-exist")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "does-not-exist")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("chat round trip", func(t *testing.T) {
		chat := sampleChat("-1001", 3)
		require.NoError(t, store.SaveChat(ctx, chat))

		got, err := store.GetChat(ctx, "-1001")
		require.NoError(t, err)
		assert.Equal(t, chat, got)
	})

	t.Run("chat overwrite", func(t *testing.T) {
		chat := sampleChat("-1002", 2)
		require.NoError(t, store.SaveChat(ctx, chat))

		_, err := chat.RemoveTag(0)
		require.NoError(t, err)
		require.NoError(t, store.SaveChat(ctx, chat))

		got, err := store.GetChat(ctx, "-1002")
		require.NoError(t, err)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "tag 1", got.Tags[0].Text)
	})

	t.Run("returned chat is detached", func(t *testing.T) {
		require.NoError(t, store.SaveChat(ctx, sampleChat("-1003", 1)))

		got, err := store.GetChat(ctx, "-1003")
		require.NoError(t, err)
		got.Tags = nil

		again, err := store.GetChat(ctx, "-1003")
		require.NoError(t, err)
		assert.Len(t, again.Tags, 1)
	})

	t.Run("user round trip", func(t *testing.T) {
		chatID := "-1001"
		user := &models.User{ID: "42", FirstName: "Cesar", Username: "cesar", LastQueriedChat: &chatID}
		require.NoError(t, store.SaveUser(ctx, user))

		got, err := store.GetUser(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, user, got)

		user.Username = "cesar2"
		require.NoError(t, store.SaveUser(ctx, user))
		got, err = store.GetUser(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "cesar2", got.Username)
	})

	require.NoError(t, store.Close(ctx))

	t.Run("survives reopen", func(t *testing.T) {
		reopened, err := open(ctx)
		require.NoError(t, err)
		defer func() { assert.NoError(t, reopened.Close(ctx)) }()

		got, err := reopened.GetChat(ctx, "-1001")
		require.NoError(t, err)
		assert.Equal(t, sampleChat("-1001", 3), got)

		user, err := reopened.GetUser(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "cesar2", user.Username)
	})
}
