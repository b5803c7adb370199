package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteConfig configures a SQLite-backed mirror.
type SQLiteConfig struct {
	// Path is the SQLite database file
	Path string

	// StorageKey is the key under which the snapshot blob lives
	StorageKey string
}

// SQLiteMirror implements Mirror on a single SQLite table. Each SetItem is
// one upsert statement, so writes are atomic without explicit transactions.
type SQLiteMirror struct {
	db         *sql.DB
	storageKey string
}

// NewSQLiteMirror opens (creating if needed) the database at cfg.Path and
// ensures the snapshot table exists.
func NewSQLiteMirror(cfg SQLiteConfig) (*SQLiteMirror, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite mirror: path is required")
	}
	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("sqlite mirror: storage key is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("create mirror directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	m := &SQLiteMirror{db: db, storageKey: cfg.StorageKey}
	if err := m.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return m, nil
}

func (m *SQLiteMirror) migrate() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			blob       BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// StorageKey returns the key under which the snapshot blob lives.
func (m *SQLiteMirror) StorageKey() string {
	return m.storageKey
}

// GetItem retrieves the blob stored under key.
// Returns (nil, nil) if no blob exists.
func (m *SQLiteMirror) GetItem(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := m.db.QueryRowContext(ctx,
		`SELECT blob FROM snapshots WHERE key = ?`, key).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return blob, nil
}

// SetItem stores blob under key, replacing any previous value.
func (m *SQLiteMirror) SetItem(ctx context.Context, key string, blob []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, blob, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			blob = excluded.blob,
			updated_at = excluded.updated_at
	`, key, blob)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// RemoveItem deletes the blob stored under key.
// Removing an absent key is not an error.
func (m *SQLiteMirror) RemoveItem(ctx context.Context, key string) error {
	if _, err := m.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Clear deletes every stored blob.
func (m *SQLiteMirror) Clear(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}
