package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/repotest"
	"github.com/stretchr/testify/assert"
)

func TestStoreSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "data", "ehbot.db")
	repotest.Run(t, func(ctx context.Context) (repo.Store, error) {
		return NewStore(ctx, dsn)
	})
}

func TestDriverFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dsn     string
		driver  string
		dialect dialect
	}{
		{dsn: "postgres://u:p@localhost:5432/ehbot", driver: "pgx", dialect: dialectPostgres},
		{dsn: "postgresql://localhost/ehbot", driver: "pgx", dialect: dialectPostgres},
		{dsn: "ehbot.db", driver: "sqlite", dialect: dialectSQLite},
		{dsn: ":memory:", driver: "sqlite", dialect: dialectSQLite},
	}
	for _, tt := range tests {
		driver, d := driverFor(tt.dsn)
		assert.Equal(t, tt.driver, driver, tt.dsn)
		assert.Equal(t, tt.dialect, d, tt.dsn)
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &store{dialect: dialectPostgres}
	assert.Equal(t, "UPDATE chats SET value = $1 WHERE id = $2", pg.rebind("UPDATE chats SET value = ? WHERE id = ?"))

	lite := &store{dialect: dialectSQLite}
	assert.Equal(t, "SELECT value FROM chats WHERE id = ?", lite.rebind("SELECT value FROM chats WHERE id = ?"))
}
