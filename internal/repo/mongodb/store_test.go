package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/repotest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	database := fmt.Sprintf("ehbot_test_%d", time.Now().UnixNano())

	t.Cleanup(func() {
		ctx := context.Background()
		db, err := NewConnection(ctx, uri, database)
		require.NoError(t, err)
		require.NoError(t, db.Database.Drop(ctx))
		require.NoError(t, db.Close(ctx))
	})

	repotest.Run(t, func(ctx context.Context) (repo.Store, error) {
		db, err := NewConnection(ctx, uri, database)
		if err != nil {
			return nil, err
		}
		return NewStore(db), nil
	})
}
