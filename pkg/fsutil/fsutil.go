// Package fsutil holds small file helpers shared by the file-backed stores.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrAtomicWrite = errors.New("fsutil: atomic write failed")

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
)

// WriteFileAtomic replaces path with content through a temp file and a
// rename, so readers never observe a partial file.
func WriteFileAtomic(path string, content []byte) error {
	parentDir := filepath.Dir(path)
	if err := os.MkdirAll(parentDir, defaultDirPerm); err != nil {
		return fmt.Errorf("%w: ensure dir %s: %w", ErrAtomicWrite, parentDir, err)
	}

	tmp, err := os.CreateTemp(parentDir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", ErrAtomicWrite, path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("%w: write temp for %s: %w", ErrAtomicWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp for %s: %w", ErrAtomicWrite, path, err)
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		return fmt.Errorf("%w: chmod temp for %s: %w", ErrAtomicWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp for %s: %w", ErrAtomicWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename temp for %s: %w", ErrAtomicWrite, path, err)
	}

	// best effort
	if dir, err := os.Open(parentDir); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}
