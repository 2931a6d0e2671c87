// Package store persists docpipe state that outlives a single crawl:
// monitored URLs with their last content, change snapshots, and the chat
// API credential.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDBName is the database file used when no path is configured.
const DefaultDBName = "docpipe.db"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Config controls where the database lives.
type Config struct {
	Path string `yaml:"path"`
}

// WithDefaults fills zero fields. The default path is under the user config
// directory, or the working directory when that is unavailable.
func (c Config) WithDefaults() Config {
	if c.Path != "" {
		return c
	}
	if dir, err := os.UserConfigDir(); err == nil {
		c.Path = filepath.Join(dir, "docpipe", DefaultDBName)
	} else {
		c.Path = DefaultDBName
	}
	return c
}

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// openDB opens a SQLite database at the given path.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path}
	if err := s.InitSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// InitSchema creates any missing tables.
func (s *Store) InitSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS monitored_urls (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	last_crawled  TIMESTAMP,
	last_changed  TIMESTAMP,
	change_count  INTEGER NOT NULL DEFAULT 0,
	error_count   INTEGER NOT NULL DEFAULT 0,
	last_error    TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	content_type  TEXT NOT NULL DEFAULT '',
	content_hash  TEXT NOT NULL DEFAULT '',
	added_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	url_id        TEXT NOT NULL REFERENCES monitored_urls(id) ON DELETE CASCADE,
	content       TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	captured_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_url_id ON snapshots(url_id);
`
