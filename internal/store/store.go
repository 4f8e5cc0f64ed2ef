// Package store persists projects, bids, session statistics and the activity
// log in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

// Store wraps the SQLite connection. It is safe for concurrent use by
// several sessions; writes are serialised on a single connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and initialises the schema.
// The special path ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is required")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func dsn(path string) string {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		return path + "?" + pragmas
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&" + pragmas
}

func initSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id INTEGER NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			owner_id INTEGER NOT NULL DEFAULT 0,
			minimum_budget REAL NOT NULL DEFAULT 0,
			maximum_budget REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			project_type TEXT NOT NULL DEFAULT '',
			exchange_rate REAL NOT NULL DEFAULT 0,
			submitted_at INTEGER,
			seo_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bid_id INTEGER NOT NULL DEFAULT 0,
			project_id INTEGER NOT NULL,
			project_title TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL,
			period INTEGER NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			currency_code TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'placed',
			project_link TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL,
			placed_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_session_id ON bids(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_project_id ON bids(project_id)`,
		`CREATE TABLE IF NOT EXISTS bot_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			total_projects_found INTEGER NOT NULL DEFAULT 0,
			total_projects_filtered INTEGER NOT NULL DEFAULT 0,
			total_bids_placed INTEGER NOT NULL DEFAULT 0,
			total_errors INTEGER NOT NULL DEFAULT 0,
			configuration TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS bot_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			logged_at INTEGER NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			project_id INTEGER,
			additional_data TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bot_logs_session_id ON bot_logs(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func nullMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}
