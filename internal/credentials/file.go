package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// FileStore keeps credentials in a JSON file with mode 0600.
//
// The file is read on every Get and replaced atomically on Set, so several
// processes may share it. A missing file means "no credentials".
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore backed by path. The parent directory is
// created on the first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get reads the credentials file.
func (s *FileStore) Get() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Credentials{}, nil
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials %s: %w", s.path, err)
	}
	return creds, nil
}

// Set writes the credentials file atomically.
func (s *FileStore) Set(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if creds == (Credentials{}) {
		return s.removeLocked()
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	// atomic.WriteFile keeps the mode of an existing file, or uses the
	// temp file's 0600 for a new one; enforce it either way.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("chmod credentials: %w", err)
	}
	return nil
}

// Clear deletes the credentials file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

func (s *FileStore) removeLocked() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
