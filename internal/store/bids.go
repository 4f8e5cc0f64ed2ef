package store

import (
	"context"
	"fmt"
	"time"
)

const BidStatusPlaced = "placed"

// BidRecord is a bid the bot placed.
type BidRecord struct {
	ID           int64
	BidID        int64
	ProjectID    int64
	ProjectTitle string
	Amount       float64
	Period       int
	Content      string
	CurrencyCode string
	Status       string
	ProjectLink  string
	SessionID    string
	PlacedAt     time.Time
}

// SaveBid stores a placed bid and returns its row id.
func (s *Store) SaveBid(ctx context.Context, b BidRecord) (int64, error) {
	if b.Status == "" {
		b.Status = BidStatusPlaced
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bids (bid_id, project_id, project_title, amount, period, content, currency_code,
			status, project_link, session_id, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BidID, b.ProjectID, b.ProjectTitle, b.Amount, b.Period, b.Content, b.CurrencyCode,
		b.Status, b.ProjectLink, b.SessionID, toMillis(b.PlacedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("save bid for project %d: %w", b.ProjectID, err)
	}

	return res.LastInsertId()
}

// RecentBids returns the latest bids across all sessions.
func (s *Store) RecentBids(ctx context.Context, limit int) ([]BidRecord, error) {
	return s.queryBids(ctx, `SELECT `+bidColumns+` FROM bids ORDER BY placed_at DESC, id DESC LIMIT ?`, limitOrDefault(limit))
}

// SessionBids returns every bid of a session, latest first.
func (s *Store) SessionBids(ctx context.Context, sessionID string) ([]BidRecord, error) {
	return s.queryBids(ctx, `SELECT `+bidColumns+` FROM bids WHERE session_id = ? ORDER BY placed_at DESC, id DESC`, sessionID)
}

const bidColumns = `id, bid_id, project_id, project_title, amount, period, content, currency_code,
	status, project_link, session_id, placed_at`

func (s *Store) queryBids(ctx context.Context, query string, args ...any) ([]BidRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	var out []BidRecord
	for rows.Next() {
		var (
			b      BidRecord
			placed int64
		)
		if err := rows.Scan(&b.ID, &b.BidID, &b.ProjectID, &b.ProjectTitle, &b.Amount, &b.Period, &b.Content,
			&b.CurrencyCode, &b.Status, &b.ProjectLink, &b.SessionID, &placed); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		b.PlacedAt = time.UnixMilli(placed)
		out = append(out, b)
	}

	return out, rows.Err()
}
