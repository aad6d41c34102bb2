package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// AppName names the per-user data directory.
const AppName = "problempad"

// DefaultStorageKey is the key the report list is stored under.
const DefaultStorageKey = "problem_reports_v1"

// ErrInvalidKey is returned for keys that cannot name a storage slot.
var ErrInvalidKey = errors.New("invalid storage key")

// LocalStorage is a durable key/value store holding whole serialized values,
// the way a browser's localStorage does.
type LocalStorage interface {
	// Get returns the value for key; ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// DefaultLocalDir returns the XDG data directory for problempad.
// On Linux: ~/.local/share/problempad
func DefaultLocalDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// FileStorage keeps one JSON file per key in a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage stores keys under dir; empty dir means DefaultLocalDir.
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = DefaultLocalDir()
	}
	return &FileStorage{dir: dir}
}

// Dir returns the directory holding the key files.
func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is built from a validated key
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set writes through a temp file and a rename so readers never observe a
// half-written list.
func (s *FileStorage) Set(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func (s *FileStorage) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
