package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/store"
)

type report struct {
	Totals   store.Totals          `json:"totals"`
	Sessions []store.SessionRecord `json:"sessions"`
	Projects []store.ProjectRecord `json:"projects,omitempty"`
	Bids     []store.BidRecord     `json:"bids"`
	Activity []store.ActivityEntry `json:"activity"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print session statistics, placed bids and recent activity",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, err := newLogger()
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		sessionID, _ := cmd.Flags().GetString("session")
		limit, _ := cmd.Flags().GetInt("limit")

		r, err := buildReport(cmd.Context(), config.Database, sessionID, limit)
		if err != nil {
			logger.Fatal("building report", zap.Error(err))
		}

		printJSON(cmd, r)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session", "s", "", "report a single session by id")
	reportCmd.Flags().IntP("limit", "l", 20, "maximum number of sessions, bids and activity entries")
}

func buildReport(ctx context.Context, database, sessionID string, limit int) (*report, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var r report
	if r.Totals, err = db.Totals(ctx); err != nil {
		return nil, err
	}

	if sessionID == "" {
		if r.Sessions, err = db.RecentSessions(ctx, limit); err != nil {
			return nil, err
		}
		if r.Projects, err = db.RecentProjects(ctx, limit); err != nil {
			return nil, err
		}
		if r.Bids, err = db.RecentBids(ctx, limit); err != nil {
			return nil, err
		}
	} else {
		s, err := db.Session(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		r.Sessions = []store.SessionRecord{*s}
		if r.Bids, err = db.SessionBids(ctx, sessionID); err != nil {
			return nil, err
		}
	}

	if r.Activity, err = db.Activity(ctx, sessionID, limit); err != nil {
		return nil, err
	}

	return &r, nil
}
