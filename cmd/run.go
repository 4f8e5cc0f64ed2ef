package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/config"
	"github.com/spigell/fl-bidder/internal/session"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errDeclined = errors.New("declined at the prompt")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one bidding session in the foreground",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "session id or name to run (asked interactively when several are configured)")
	runCmd.Flags().IntP("quota", "q", 0, "bid quota for this run, overrides the configuration")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before bidding")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the fl-bidder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := runSession(cmd, config, logger); err != nil {
		if errors.Is(err, errDeclined) {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
		logger.Fatal("running session", zap.Error(err))
	}
}

func runSession(cmd *cobra.Command, cfg *Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	yes, _ := cmd.Flags().GetBool("yes")
	name, _ := cmd.Flags().GetString("session")

	rt, err := newRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	profiles, err := rt.profiles(explicitOverrides(cmd))
	if err != nil {
		return fmt.Errorf("resolve sessions: %w", err)
	}

	profile, err := pickProfile(profiles, name, yes)
	if err != nil {
		return err
	}

	if !yes {
		if err := confirm(profile); err != nil {
			return err
		}
	}

	registry := session.NewRegistry(rt.newLoop, log)
	id, err := registry.Register(profile)
	if err != nil {
		return err
	}

	if err := registry.Start(ctx, id); err != nil {
		return err
	}

	handleSignals(ctx, log, func() {
		if err := registry.Stop(id); err != nil && !errors.Is(err, session.ErrNotRunning) {
			log.Warn("stopping session", zap.Error(err))
		}
	}, cancel)

	state, err := registry.Wait(context.Background(), id)
	printJSON(cmd, state)

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// explicitOverrides turns command line flags into the topmost settings layer.
func explicitOverrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	if cmd.Flags().Changed("quota") {
		quota, _ := cmd.Flags().GetInt("quota")
		o.Quota = &quota
	}
	return o
}

func pickProfile(profiles []session.Profile, name string, yes bool) (session.Profile, error) {
	if name != "" {
		for _, p := range profiles {
			if p.Session.ID == name || p.Session.Name == name {
				return p, nil
			}
		}
		return session.Profile{}, fmt.Errorf("%w: %s", session.ErrUnknownSession, name)
	}

	switch {
	case len(profiles) == 0:
		return session.Profile{}, errors.New("no sessions configured")
	case len(profiles) == 1:
		return profiles[0], nil
	case yes:
		return session.Profile{}, errors.New("several sessions are configured, choose one with --session")
	}

	items := make([]string, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, profileLabel(p))
	}

	sessionPrompt := promptui.Select{
		Label: "Choose a session and press ENTER",
		Items: items,
	}

	i, _, err := sessionPrompt.Run()
	if err != nil {
		return session.Profile{}, err
	}

	return profiles[i], nil
}

func confirm(p session.Profile) error {
	prompt := promptui.Select{
		Label: fmt.Sprintf("Start bidding as %s with a quota of %d bids?", profileLabel(p), p.Settings.Quota),
		Items: []string{PromptYes, PromptNo},
	}

	_, action, err := prompt.Run()
	if err != nil {
		return err
	}
	if action != PromptYes {
		return errDeclined
	}
	return nil
}

func profileLabel(p session.Profile) string {
	switch {
	case p.Session.Name != "" && p.Session.ID != "":
		return fmt.Sprintf("%s (%s)", p.Session.Name, p.Session.ID)
	case p.Session.Name != "":
		return p.Session.Name
	default:
		return p.Session.ID
	}
}

// handleSignals calls stop on the first interrupt and cancel on the second.
func handleSignals(ctx context.Context, log *zap.Logger, stop func(), cancel context.CancelFunc) {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sig)

		select {
		case <-sig:
		case <-ctx.Done():
			return
		}
		log.Info("stopping after the current bid attempt, interrupt again to abort")
		stop()

		select {
		case <-sig:
		case <-ctx.Done():
			return
		}
		log.Warn("aborting")
		cancel()
	}()
}

func printJSON(cmd *cobra.Command, v any) {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "encoding output: %v\n", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
