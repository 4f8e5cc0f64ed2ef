package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spigell/fl-bidder/internal/freelancer"
)

// ProjectRecord is a project as it was seen when the bot decided to bid on it.
type ProjectRecord struct {
	ProjectID    int64
	Title        string
	Description  string
	OwnerID      int64
	MinBudget    float64
	MaxBudget    float64
	Currency     string
	Type         string
	ExchangeRate float64
	SubmittedAt  time.Time
	SeoURL       string
	Status       string
	CreatedAt    time.Time
}

// SaveProject stores a project once. Saving an already known project is a no-op.
func (s *Store) SaveProject(ctx context.Context, p *freelancer.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (project_id, title, description, owner_id, minimum_budget, maximum_budget,
			currency, project_type, exchange_rate, submitted_at, seo_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO NOTHING`,
		p.ID, p.Title, p.Description, p.OwnerID, p.Budget.Minimum, p.Budget.Maximum,
		p.Currency.Code, p.Type, p.Currency.ExchangeRate, nullMillis(p.SubmittedAt()), p.SeoURL,
		freelancer.StatusActive, toMillis(time.Time{}),
	)
	if err != nil {
		return fmt.Errorf("save project %d: %w", p.ID, err)
	}
	return nil
}

// RecentProjects returns the most recently stored projects first.
func (s *Store) RecentProjects(ctx context.Context, limit int) ([]ProjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, title, description, owner_id, minimum_budget, maximum_budget, currency,
			project_type, exchange_rate, submitted_at, seo_url, status, created_at
		FROM projects ORDER BY created_at DESC, id DESC LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []ProjectRecord
	for rows.Next() {
		var (
			r         ProjectRecord
			submitted sql.NullInt64
			created   int64
		)
		if err := rows.Scan(&r.ProjectID, &r.Title, &r.Description, &r.OwnerID, &r.MinBudget, &r.MaxBudget,
			&r.Currency, &r.Type, &r.ExchangeRate, &submitted, &r.SeoURL, &r.Status, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		r.SubmittedAt = fromMillis(submitted)
		r.CreatedAt = time.UnixMilli(created)
		out = append(out, r)
	}

	return out, rows.Err()
}
