// Package filestore keeps chats and users as two JSON documents on disk,
// each rewritten whole on every save.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/ehbot/internal/models"
	"github.com/nguyentranbao-ct/ehbot/internal/repo"
	"github.com/nguyentranbao-ct/ehbot/pkg/fsutil"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
	"github.com/nguyentranbao-ct/ehbot/pkg/util"
)

const (
	ChatsFile = "chats.json"
	UsersFile = "users.json"
)

type store struct {
	log   *logger.Logger
	mu    sync.Mutex
	dir   string
	chats map[string]*models.Chat
	users map[string]*models.User
}

// NewStore loads both documents from dir. A missing or unreadable document
// starts that collection empty.
func NewStore(dir string) (repo.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	log := logger.MustNamed("filestore")
	s := &store{
		log:   log,
		dir:   dir,
		chats: loadDocument[*models.Chat](log, filepath.Join(dir, ChatsFile)),
		users: loadDocument[*models.User](log, filepath.Join(dir, UsersFile)),
	}
	s.log.Infow("store loaded", "dir", dir, "chats", len(s.chats), "users", len(s.users))
	return s, nil
}

func loadDocument[T any](log *logger.Logger, path string) map[string]T {
	out := map[string]T{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infow("no existing data, starting empty", "path", path)
		return out
	}
	if err != nil {
		log.Warnw("read failed, starting empty", "path", path, "error", err)
		return out
	}
	var decoded map[string]T
	if err := json.Unmarshal(data, &decoded); err != nil {
		log.Warnw("corrupt data, starting empty", "path", path, "error", err)
		return out
	}
	if decoded == nil {
		return out
	}
	return decoded
}

func (s *store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok || chat == nil {
		return nil, models.ErrNotFound
	}
	out, err := util.Clone(chat)
	if err != nil {
		return nil, fmt.Errorf("clone chat: %w", err)
	}
	if out.Tags == nil {
		out.Tags = []models.Tag{}
	}
	return out, nil
}

func (s *store) SaveChat(ctx context.Context, chat *models.Chat) error {
	stored, err := util.Clone(chat)
	if err != nil {
		return fmt.Errorf("clone chat: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.chats[chat.ID]
	s.chats[chat.ID] = stored
	if err := s.flush(ChatsFile, s.chats); err != nil {
		if existed {
			s.chats[chat.ID] = prev
		} else {
			delete(s.chats, chat.ID)
		}
		return err
	}
	return nil
}

func (s *store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok || user == nil {
		return nil, models.ErrNotFound
	}
	out, err := util.Clone(user)
	if err != nil {
		return nil, fmt.Errorf("clone user: %w", err)
	}
	return out, nil
}

func (s *store) SaveUser(ctx context.Context, user *models.User) error {
	stored, err := util.Clone(user)
	if err != nil {
		return fmt.Errorf("clone user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.users[user.ID]
	s.users[user.ID] = stored
	if err := s.flush(UsersFile, s.users); err != nil {
		if existed {
			s.users[user.ID] = prev
		} else {
			delete(s.users, user.ID)
		}
		return err
	}
	return nil
}

func (s *store) flush(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := fsutil.WriteFileAtomic(filepath.Join(s.dir, name), data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *store) Close(ctx context.Context) error {
	return nil
}
