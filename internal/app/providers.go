package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/ehbot/internal/config"
	"github.com/nguyentranbao-ct/ehbot/internal/poller"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/badgerstore"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/cursor"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/filestore"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/sqlstore"
	"github.com/nguyentranbao-ct/ehbot/internal/repo/telegram"
	"github.com/nguyentranbao-ct/ehbot/internal/server"
	"github.com/nguyentranbao-ct/ehbot/internal/usecase"
)

const openTimeout = 10 * time.Second

// OpenStore opens the backend selected by STORE_DRIVER.
func OpenStore(ctx context.Context, conf *config.Config) (repo.Store, error) {
	switch conf.Store.Driver {
	case config.DriverFile, "":
		return filestore.NewStore(conf.Store.Dir)
	case config.DriverSQL:
		return sqlstore.NewStore(ctx, conf.Store.SQLDSN())
	case config.DriverMongo:
		db, err := mongodb.NewConnection(ctx, conf.Store.MongoURI(), conf.Store.Database)
		if err != nil {
			return nil, err
		}
		return mongodb.NewStore(db), nil
	case config.DriverBadger:
		return badgerstore.NewStore(conf.Store.BadgerDir())
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Store.Driver)
	}
}

func newStore(lc fx.Lifecycle, conf *config.Config) (repo.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	store, err := OpenStore(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", conf.Store.Driver, err)
	}
	lc.Append(fx.Hook{
		OnStop: store.Close,
	})
	return store, nil
}

// newCursor resolves a relative CURSOR_FILE against STORE_DIR.
func newCursor(conf *config.Config) cursor.Store {
	path := conf.Cursor.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(conf.Store.Dir, path)
	}
	return cursor.NewFileStore(path)
}

func chatRepository(s repo.Store) repo.ChatRepository { return s }

func userRepository(s repo.Store) repo.UserRepository { return s }

func messenger(c telegram.Client) usecase.Messenger { return c }

func updateSource(c telegram.Client) poller.UpdateSource { return c }

func webhookRegistrar(c telegram.Client) server.WebhookRegistrar { return c }
