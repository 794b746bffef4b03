// Package badgerstore keeps entities in an embedded badger database under
// "chat:" and "user:" keys.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

const (
	chatPrefix = "chat:"
	userPrefix = "user:"
)

type store struct {
	log *logger.Logger
	db  *badger.DB
}

func NewStore(path string) (repo.Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	log := logger.MustNamed("badgerstore")
	log.Infow("badger database opened", "path", path)
	return &store{log: log, db: db}, nil
}

func (s *store) get(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *store) set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	data, err := s.get(chatPrefix + id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeChat(data)
}

func (s *store) SaveChat(ctx context.Context, chat *models.Chat) error {
	data, err := repo.EncodeChat(chat)
	if err != nil {
		return err
	}
	return s.set(chatPrefix+chat.ID, data)
}

func (s *store) GetUser(ctx context.Context, id string) (*models.User, error) {
	data, err := s.get(userPrefix + id)
	if err != nil {
		return nil, err
	}
	return repo.DecodeUser(data)
}

func (s *store) SaveUser(ctx context.Context, user *models.User) error {
	data, err := repo.EncodeUser(user)
	if err != nil {
		return err
	}
	return s.set(userPrefix+user.ID, data)
}

func (s *store) Close(ctx context.Context) error {
	s.log.Infow("closing badger database")
	return s.db.Close()
}
