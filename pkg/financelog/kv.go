package financelog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// KV is the durable medium backing the record store. Collections are stored
// as whole JSON documents under fixed keys, so the interface stays a plain
// get/put/delete surface.
type KV interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// SQLiteKV is the production medium: a single-table SQLite database.
type SQLiteKV struct {
	db   *sql.DB
	path string
}

// OpenSQLiteKV opens (and creates if needed) a key-value database at path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if path == "" {
		return nil, errors.New("db path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init kv schema: %w", err)
	}

	return &SQLiteKV{db: db, path: cleanPath}, nil
}

// Get implements KV.
func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Put implements KV.
func (s *SQLiteKV) Put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value),
	)
	return err
}

// Delete implements KV.
func (s *SQLiteKV) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key)
	return err
}

// Path returns the underlying database path.
func (s *SQLiteKV) Path() string {
	return s.path
}

// Close releases database resources.
func (s *SQLiteKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MemoryKV is an in-memory medium for tests and ephemeral use.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory medium.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string][]byte{}}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Put implements KV.
func (m *MemoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
