package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

// FileStore keeps the record as JSON in a single 0600 file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. Nothing is created until Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Load() (*StoredKeys, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, kerrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored keys at %s: %w", f.path, err)
	}

	var stored StoredKeys
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	if err := stored.Validate(); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Save writes to a temporary file in the same directory and renames it into place.
func (f *FileStore) Save(stored *StoredKeys) error {
	if err := stored.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create keys directory at %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stored keys: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".keys-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary keys file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on keys file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write keys file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync keys file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close keys file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace keys file at %s: %w", f.path, err)
	}
	return nil
}

func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored keys at %s: %w", f.path, err)
	}
	return nil
}
