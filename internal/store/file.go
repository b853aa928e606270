package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	chatHistoryDir = "chat_history"
	profileDir     = "profiles"
)

// FileStore implements Repository with one JSON file per record under a data
// directory.
type FileStore struct {
	root string
}

// NewFileStore creates the data directory layout and returns a file-backed repository.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{root, filepath.Join(root, chatHistoryDir), filepath.Join(root, profileDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &FileStore{root: root}, nil
}

// Path returns the file backing the record.
func (s *FileStore) Path(kind Kind, key string) (string, error) {
	if err := checkKey(kind, key); err != nil {
		return "", err
	}
	switch kind {
	case KindCredentials:
		return filepath.Join(s.root, key+".json"), nil
	case KindProfile:
		return filepath.Join(s.root, profileDir, key+"_profile.json"), nil
	default:
		return filepath.Join(s.root, chatHistoryDir, key+"_chat_history.json"), nil
	}
}

// Get returns the file contents. Returns nil, nil if the file does not exist.
func (s *FileStore) Get(_ context.Context, kind Kind, key string) ([]byte, error) {
	path, err := s.Path(kind, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s record: %w", kind, err)
	}
	return data, nil
}

// Put replaces the file contents. The write goes through a temp file so a
// crash never leaves a half-written record behind.
func (s *FileStore) Put(_ context.Context, kind Kind, key string, data []byte) error {
	path, err := s.Path(kind, key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp %s record: %w", kind, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s record: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s record: %w", kind, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s record: %w", kind, err)
	}
	return nil
}

// Ping checks that the data directory is still present.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", s.root)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
