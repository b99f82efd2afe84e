// Package store provides the SQLite-backed album record store.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS albums (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	album_name        TEXT NOT NULL,
	artists           TEXT NOT NULL DEFAULT '[]',
	genre             TEXT,
	rating            INTEGER CHECK (rating IS NULL OR (rating >= 1 AND rating <= 10)),
	personal_notes    TEXT,

	release_date      TEXT,
	label             TEXT,
	producer          TEXT,
	total_duration    TEXT,
	track_count       INTEGER,
	track_listing     TEXT,
	album_review      TEXT,
	musical_style     TEXT,
	similar_artists   TEXT,
	awards            TEXT,
	llm_categories    TEXT,

	source_image_path TEXT,
	date_added        DATETIME NOT NULL,
	last_updated      DATETIME NOT NULL,

	UNIQUE (album_name, artists)
);

CREATE TABLE IF NOT EXISTS processed_images (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	image_path       TEXT UNIQUE NOT NULL,
	processed_date   DATETIME NOT NULL,
	albums_extracted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(album_name);
`

// migrations add columns introduced after the first schema. Each runs
// once; "duplicate column name" means it has already been applied.
var migrations = []string{
	`ALTER TABLE albums ADD COLUMN user_categories TEXT`,
	`ALTER TABLE processed_images ADD COLUMN checksum TEXT NOT NULL DEFAULT ''`,
}

// DB wraps a sql.DB with record-store operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Option customizes a DB.
type Option func(*DB)

// WithClock overrides the timestamp source used for date_added and last_updated.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		if now != nil {
			db.now = now
		}
	}
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	db := &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(db)
	}
	return db, nil
}

func migrate(conn *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := conn.Exec(stmt); err != nil && !strings.Contains(err.Error(), "duplicate column name") {
			return fmt.Errorf("store: migrate %q: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
