package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/fl-bidder/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run every configured bidding session concurrently",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringSliceP("session", "s", nil, "session ids or names to run (default is all of them)")
	serveCmd.Flags().IntP("quota", "q", 0, "bid quota for every session, overrides the configuration")
}

func serve(cmd *cobra.Command) {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the fl-bidder", zap.String("version", version), zap.Int("sessions", len(config.Sessions)))

	if err := serveSessions(cmd, config, logger); err != nil {
		logger.Fatal("serving sessions", zap.Error(err))
	}
}

func serveSessions(cmd *cobra.Command, cfg *Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	selected, _ := cmd.Flags().GetStringSlice("session")

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	profiles, err := rt.profiles(explicitOverrides(cmd))
	if err != nil {
		return fmt.Errorf("resolve sessions: %w", err)
	}

	registry := session.NewRegistry(rt.newLoop, log)
	for _, p := range profiles {
		if len(selected) > 0 && !slices.Contains(selected, p.Session.ID) && !slices.Contains(selected, p.Session.Name) {
			continue
		}
		if _, err := registry.Register(p); err != nil {
			return err
		}
	}

	ids := registry.IDs()
	if len(ids) == 0 {
		return errors.New("no sessions selected")
	}

	handleSignals(ctx, log, registry.StopAll, cancel)

	// Sessions are independent, so one failing session does not cancel the others.
	var g errgroup.Group
	started := 0
	for _, id := range ids {
		if err := registry.Start(ctx, id); err != nil {
			log.Error("starting session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		started++

		g.Go(func() error {
			_, err := registry.Wait(context.Background(), id)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("session %s: %w", id, err)
			}
			return nil
		})
	}

	if started == 0 {
		return errors.New("no session could be started")
	}

	err = g.Wait()
	printJSON(cmd, registry.Statuses())

	return err
}
