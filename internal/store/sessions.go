package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SessionRecord holds the persisted statistics of one bot session.
type SessionRecord struct {
	SessionID        string
	Name             string
	Status           string
	StartedAt        time.Time
	EndedAt          time.Time
	ProjectsFound    int
	ProjectsFiltered int
	BidsPlaced       int
	Errors           int
	Configuration    json.RawMessage
}

// SaveSession inserts or replaces the statistics of a session.
func (s *Store) SaveSession(ctx context.Context, r SessionRecord) error {
	cfg := string(r.Configuration)
	if cfg == "" {
		cfg = "{}"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_sessions (session_id, name, status, started_at, ended_at, total_projects_found,
			total_projects_filtered, total_bids_placed, total_errors, configuration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			total_projects_found = excluded.total_projects_found,
			total_projects_filtered = excluded.total_projects_filtered,
			total_bids_placed = excluded.total_bids_placed,
			total_errors = excluded.total_errors,
			configuration = excluded.configuration`,
		r.SessionID, r.Name, r.Status, toMillis(r.StartedAt), nullMillis(r.EndedAt), r.ProjectsFound,
		r.ProjectsFiltered, r.BidsPlaced, r.Errors, cfg,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", r.SessionID, err)
	}
	return nil
}

// Session returns the statistics of a session or ErrNotFound.
func (s *Store) Session(ctx context.Context, sessionID string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM bot_sessions WHERE session_id = ?`, sessionID)
	r, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RecentSessions returns the latest started sessions first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM bot_sessions ORDER BY started_at DESC, id DESC LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}

	return out, rows.Err()
}

// Totals summarises the whole database.
type Totals struct {
	Projects int
	Bids     int
	Sessions int
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM projects), (SELECT COUNT(*) FROM bids), (SELECT COUNT(*) FROM bot_sessions)`,
	).Scan(&t.Projects, &t.Bids, &t.Sessions)
	if err != nil {
		return Totals{}, fmt.Errorf("count totals: %w", err)
	}
	return t, nil
}

const sessionColumns = `session_id, name, status, started_at, ended_at, total_projects_found,
	total_projects_filtered, total_bids_placed, total_errors, configuration`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*SessionRecord, error) {
	var (
		r       SessionRecord
		started int64
		ended   sql.NullInt64
		cfg     string
	)
	if err := row.Scan(&r.SessionID, &r.Name, &r.Status, &started, &ended, &r.ProjectsFound,
		&r.ProjectsFiltered, &r.BidsPlaced, &r.Errors, &cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	r.StartedAt = time.UnixMilli(started)
	r.EndedAt = fromMillis(ended)
	r.Configuration = json.RawMessage(cfg)
	return &r, nil
}
