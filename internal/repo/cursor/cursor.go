// Package cursor persists the next update offset the poller asks for.
package cursor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/nguyentranbao-ct/ehbot/pkg/fsutil"
	"github.com/nguyentranbao-ct/ehbot/pkg/logger"
)

type Store interface {
	// Load returns 0 when nothing has been saved yet.
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, offset int64) error
}

type fileStore struct {
	log  *logger.Logger
	path string
}

// NewFileStore keeps the offset as decimal text in path.
func NewFileStore(path string) Store {
	return &fileStore{
		log:  logger.MustNamed("cursor"),
		path: path,
	}
}

func (s *fileStore) Load(ctx context.Context) (int64, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	offset, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil || offset < 0 {
		s.log.Warnw("unreadable cursor, starting from 0", "path", s.path, "content", line)
		return 0, nil
	}
	return offset, nil
}

func (s *fileStore) Save(ctx context.Context, offset int64) error {
	if offset < 0 {
		return fmt.Errorf("negative cursor %d", offset)
	}
	if err := fsutil.WriteFileAtomic(s.path, []byte(strconv.FormatInt(offset, 10))); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
