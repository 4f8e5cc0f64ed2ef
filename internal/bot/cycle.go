package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/audit"
	"github.com/spigell/fl-bidder/internal/bidding"
	"github.com/spigell/fl-bidder/internal/freelancer"
	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/retry"
	"github.com/spigell/fl-bidder/internal/store"
)

// cycle runs one search to bid pass. empty reports that the search or the
// processed set left nothing to look at.
func (l *Loop) cycle(ctx context.Context) (empty bool, err error) {
	projects, err := retry.Do(ctx, l.log, "search projects", l.settings.Retry, func(ctx context.Context) (freelancer.Projects, error) {
		return l.deps.Source.Search(ctx, l.settings.PageSize, l.settings.SearchOffset)
	})
	if err != nil {
		return false, fmt.Errorf("search projects: %w", err)
	}

	if projects.Len() == 0 {
		l.activity(ctx, store.LevelWarning, "no projects found", 0, nil)
		return true, nil
	}
	l.update(func(s *State) { s.ProjectsFound += projects.Len() })
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("fetched %d projects", projects.Len()), 0, nil)

	fresh, err := l.markNew(ctx, projects)
	if err != nil {
		return false, err
	}
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("%d new projects after dropping processed ones", fresh.Len()), 0, nil)
	if fresh.Len() == 0 {
		return true, nil
	}

	filtered, err := l.deps.Screener.Screen(ctx, fresh)
	if err != nil {
		return false, fmt.Errorf("filter projects: %w", err)
	}
	l.update(func(s *State) { s.ProjectsFiltered += filtered.Len() })
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("filtered down to %d projects", filtered.Len()), 0, nil)
	l.persistSession(ctx)
	if filtered.Len() == 0 {
		return false, nil
	}

	matched := l.judge(ctx, filtered)
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("ai refined down to %d projects", matched.Len()), 0, nil)

	l.placeBids(ctx, matched)

	return false, nil
}

// markNew records every identifier of the batch in the processed set and
// returns only the projects seen for the first time.
func (l *Loop) markNew(ctx context.Context, projects freelancer.Projects) (freelancer.Projects, error) {
	ids, err := l.deps.Processed.MarkNew(ctx, projects.IDs())
	if err != nil {
		return nil, fmt.Errorf("mark processed projects: %w", err)
	}
	l.update(func(s *State) { s.Processed += len(ids) })

	pending := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}

	return projects.Keep(func(p *freelancer.Project) bool {
		if _, ok := pending[p.ID]; !ok {
			return false
		}
		delete(pending, p.ID)
		return true
	}), nil
}

func (l *Loop) judge(ctx context.Context, projects freelancer.Projects) freelancer.Projects {
	matched := make(freelancer.Projects, 0, projects.Len())

	for _, project := range projects {
		if err := validate(project); err != nil {
			l.log.Debug("skipping project", logger.Project(project.ID), zap.Error(err))
			continue
		}

		ok, err := l.deps.Advisor.Match(ctx, project)
		if err != nil {
			l.activity(ctx, store.LevelError, fmt.Sprintf("ai evaluation failed for project %d: %v", project.ID, err), project.ID, nil)
			continue
		}
		if !ok {
			l.activity(ctx, store.LevelInfo, fmt.Sprintf("project %d did not match our services", project.ID), project.ID, nil)
			continue
		}

		l.activity(ctx, store.LevelInfo, fmt.Sprintf("project %d matched our services", project.ID), project.ID, nil)
		matched = append(matched, project)
	}

	l.update(func(s *State) { s.ProjectsMatched += matched.Len() })
	return matched
}

func (l *Loop) placeBids(ctx context.Context, projects freelancer.Projects) {
	for _, project := range projects {
		if !l.running.Load() || l.quotaReached() || ctx.Err() != nil {
			return
		}

		if err := l.bid(ctx, project); err != nil {
			l.activity(ctx, store.LevelError, fmt.Sprintf("failed to place bid on project %d: %v", project.ID, err), project.ID, nil)
		}
	}
}

func (l *Loop) bid(ctx context.Context, project *freelancer.Project) error {
	if l.deps.Recorder != nil {
		if err := l.deps.Recorder.SaveProject(ctx, project); err != nil {
			l.log.Warn("saving project failed", logger.Project(project.ID), zap.Error(err))
		}
	}

	draft, err := l.deps.Advisor.DraftProposal(ctx, project)
	if err != nil {
		return fmt.Errorf("draft proposal: %w", err)
	}

	analysis, err := l.deps.Advisor.RecommendTerms(ctx, project)
	if err != nil {
		return fmt.Errorf("recommend terms: %w", err)
	}

	decision := bidding.Decide(project, draft, analysis)

	placed, err := l.deps.Bidder.PlaceBid(ctx, project, decision.Amount, decision.Period, decision.Proposal)
	if err != nil {
		return err
	}

	now := l.now()
	l.update(func(s *State) { s.BidsPlaced++ })
	l.recordBid(ctx, project, decision, placed, now)

	l.activity(ctx, store.LevelInfo, fmt.Sprintf("successfully placed bid on project %d", project.ID), project.ID, map[string]any{
		"bid_amount": decision.Amount,
		"bid_period": decision.Period,
	})

	return nil
}

func (l *Loop) recordBid(ctx context.Context, project *freelancer.Project, d bidding.Decision, placed *freelancer.Bid, at time.Time) {
	var bidID int64
	if placed != nil {
		bidID = placed.ID
	}

	if l.deps.Recorder != nil {
		_, err := l.deps.Recorder.SaveBid(ctx, store.BidRecord{
			BidID:        bidID,
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			Amount:       d.Amount,
			Period:       d.Period,
			Content:      d.Proposal,
			CurrencyCode: d.CurrencyCode,
			ProjectLink:  project.Link(),
			SessionID:    l.ID(),
			PlacedAt:     at,
		})
		if err != nil {
			l.log.Warn("saving bid failed", logger.Project(project.ID), zap.Error(err))
		}
	}

	if l.deps.BidLog != nil {
		err := l.deps.BidLog.Append(audit.Entry{
			ProjectID:   project.ID,
			Title:       project.Title,
			Description: project.Description,
			Amount:      d.Amount,
			Period:      d.Period,
			Link:        project.Link(),
			SubmittedAt: at,
		})
		if err != nil {
			l.log.Warn("appending to bid log failed", logger.Project(project.ID), zap.Error(err))
		}
	}

	l.persistSession(ctx)
}

func validate(p *freelancer.Project) error {
	switch {
	case p.ID == 0:
		return errors.New("project id is missing")
	case p.Title == "":
		return errors.New("project title is missing")
	case p.Description == "":
		return errors.New("project description is missing")
	}
	return nil
}
