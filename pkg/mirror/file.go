package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const blobSuffix = ".json"

// FileMirror implements Mirror using one JSON blob file per key under a
// directory. Writes are atomic (temp file, then rename) to prevent a
// half-written snapshot surviving a crash.
//
// Keys are used directly as file names, so they must not contain path
// separators.
type FileMirror struct {
	dir        string
	storageKey string
}

// NewFileMirror creates a FileMirror storing blobs under dir.
// The snapshot blob lives at dir/<storageKey>.json.
func NewFileMirror(dir, storageKey string) *FileMirror {
	return &FileMirror{dir: dir, storageKey: storageKey}
}

// StorageKey returns the key under which the snapshot blob lives.
func (m *FileMirror) StorageKey() string {
	return m.storageKey
}

// GetItem reads the blob stored under key.
// Returns (nil, nil) if no blob exists.
func (m *FileMirror) GetItem(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(m.blobPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// SetItem stores blob under key atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (m *FileMirror) SetItem(ctx context.Context, key string, blob []byte) error {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return err
	}

	path := m.blobPath(key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// RemoveItem deletes the blob stored under key.
// Removing an absent key is not an error.
func (m *FileMirror) RemoveItem(ctx context.Context, key string) error {
	err := os.Remove(m.blobPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear deletes every blob file the mirror manages.
func (m *FileMirror) Clear(ctx context.Context) error {
	paths, err := filepath.Glob(filepath.Join(m.dir, "*"+blobSuffix))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// Path returns the full path of the blob file for the configured storage key.
func (m *FileMirror) Path() string {
	return m.blobPath(m.storageKey)
}

func (m *FileMirror) blobPath(key string) string {
	return filepath.Join(m.dir, key+blobSuffix)
}
