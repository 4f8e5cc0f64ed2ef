package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Activity levels.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// ActivityEntry is one line of a session's activity log. A zero ProjectID
// means the entry is not about a particular project.
type ActivityEntry struct {
	ID        int64
	SessionID string
	Time      time.Time
	Level     string
	Message   string
	ProjectID int64
	Data      map[string]any
}

// LogActivity appends an entry to the activity log.
func (s *Store) LogActivity(ctx context.Context, e ActivityEntry) error {
	var data sql.NullString
	if len(e.Data) > 0 {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("marshal activity data: %w", err)
		}
		data = sql.NullString{String: string(raw), Valid: true}
	}

	var project sql.NullInt64
	if e.ProjectID != 0 {
		project = sql.NullInt64{Int64: e.ProjectID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_logs (session_id, logged_at, level, message, project_id, additional_data)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, toMillis(e.Time), e.Level, e.Message, project, data,
	)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// Activity returns the latest entries first. An empty sessionID returns
// entries of all sessions.
func (s *Store) Activity(ctx context.Context, sessionID string, limit int) ([]ActivityEntry, error) {
	query := `SELECT id, session_id, logged_at, level, message, project_id, additional_data FROM bot_logs`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY logged_at DESC, id DESC LIMIT ?`
	args = append(args, limitOrDefault(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var (
			e       ActivityEntry
			logged  int64
			project sql.NullInt64
			data    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &logged, &e.Level, &e.Message, &project, &data); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Time = time.UnixMilli(logged)
		e.ProjectID = project.Int64
		if data.Valid {
			if err := json.Unmarshal([]byte(data.String), &e.Data); err != nil {
				return nil, fmt.Errorf("decode activity data: %w", err)
			}
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
