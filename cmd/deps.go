package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/ai"
	"github.com/spigell/fl-bidder/internal/ai/gemini"
	"github.com/spigell/fl-bidder/internal/audit"
	"github.com/spigell/fl-bidder/internal/bot"
	"github.com/spigell/fl-bidder/internal/config"
	"github.com/spigell/fl-bidder/internal/filtering"
	"github.com/spigell/fl-bidder/internal/freelancer"
	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/processed"
	"github.com/spigell/fl-bidder/internal/secrets"
	"github.com/spigell/fl-bidder/internal/session"
	"github.com/spigell/fl-bidder/internal/store"
)

// runtime holds the process wide resources shared by every session.
type runtime struct {
	cfg    *Config
	log    *zap.Logger
	store  *store.Store
	bidLog *audit.BidLog
	rdb    *redis.Client
}

func newRuntime(ctx context.Context, cfg *Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, log: log}

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rt.store = db

	bidLog, err := audit.NewBidLog(cfg.BidLog)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("open bid log: %w", err)
	}
	rt.bidLog = bidLog

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Processed.Backend)); backend {
	case "", backendMemory:
	case backendRedis:
		rdb, err := processed.Connect(ctx, cfg.Processed.Redis)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.rdb = rdb
	default:
		rt.Close()
		return nil, fmt.Errorf("unsupported processed backend: %s", cfg.Processed.Backend)
	}

	return rt, nil
}

func (r *runtime) Close() {
	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			r.log.Warn("closing redis client", zap.Error(err))
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.Warn("closing database", zap.Error(err))
		}
	}
}

// profiles resolves every configured session. explicit is applied last so
// command line values beat both the session and the global defaults.
func (r *runtime) profiles(explicit config.Overrides) ([]session.Profile, error) {
	sessions := r.cfg.Sessions
	if len(sessions) == 0 {
		sessions = []config.Session{{ID: "default", Name: "default"}}
	}

	profiles := make([]session.Profile, 0, len(sessions))
	var errs []error
	for _, s := range sessions {
		settings := config.Resolve(config.Defaults(), r.cfg.Defaults, s.Overrides, explicit)
		if err := settings.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", s.Name, err))
			continue
		}
		profiles = append(profiles, session.Profile{Session: s, Settings: settings})
	}

	return profiles, errors.Join(errs...)
}

// newLoop is the session.Factory of the process.
func (r *runtime) newLoop(ctx context.Context, p session.Profile) (*bot.Loop, error) {
	log := logger.WithSession(r.log, p.Session.ID, p.Session.Name)

	client, err := r.newClient(p.Session, log)
	if err != nil {
		return nil, err
	}

	assistant, err := r.newAssistant(ctx, p, log)
	if err != nil {
		return nil, err
	}

	screener := filtering.NewPipeline(&filtering.Config{
		ExcludedCurrencies: p.Settings.ExcludedCurrencies,
		ExcludedCountries:  p.Settings.ExcludedCountries,
		BudgetFloor:        p.Settings.BudgetFloor,
		ExcludeFile:        r.cfg.ExcludeFile,
	}, filtering.Deps{API: client, Logger: log})

	deps := bot.Deps{
		Source:    freelancer.NewFeed(client, p.Settings.Skills, p.Settings.Languages),
		Screener:  screener,
		Advisor:   assistant,
		Bidder:    freelancer.NewBidder(client, p.Settings.MinPostAge, p.Settings.Retry, log),
		Processed: r.processedSet(p.Session.ID),
		Logger:    r.log,
	}
	if r.store != nil {
		deps.Recorder = r.store
	}
	if r.bidLog != nil {
		deps.BidLog = r.bidLog
	}

	return bot.New(p.Session.ID, p.Session.Name, p.Settings, deps)
}

func (r *runtime) newClient(s config.Session, log *zap.Logger) (*freelancer.Client, error) {
	tokenFile := s.TokenFile
	if tokenFile == "" {
		tokenFile = r.cfg.TokenFile
	}

	token, err := secrets.Load(secrets.Source{
		Name: "freelancer token",
		File: tokenFile,
		Env:  "FL_TOKEN",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set token-file or FL_TOKEN_FILE)", err)
	}

	client := freelancer.New(log, token)
	if r.cfg.APIURL != "" {
		client.APIURL = strings.TrimRight(r.cfg.APIURL, "/")
	}
	if r.cfg.UserAgent != "" {
		client.UserAgent = r.cfg.UserAgent
	}

	return client, nil
}

func (r *runtime) newAssistant(ctx context.Context, p session.Profile, log *zap.Logger) (*ai.Assistant, error) {
	provider := strings.TrimSpace(strings.ToLower(r.cfg.AI.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", r.cfg.AI.Provider)
	}

	keyFile := p.Session.APIKeyFile
	if keyFile == "" {
		keyFile = r.cfg.AI.Gemini.APIKeyFile
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, r.cfg.AI.Gemini.Model)
	if err != nil {
		return nil, err
	}

	return ai.NewAssistant(
		generator,
		templates(p.Settings),
		p.Settings.Retry,
		logger.WithCommonFields(log, generator.Provider(), generator.Model()),
		r.cfg.AI.Gemini.MaxLogLength,
	), nil
}

func (r *runtime) processedSet(sessionID string) processed.Set {
	if r.rdb == nil {
		return processed.NewMemorySet()
	}
	return processed.NewRedisSet(r.rdb, sessionID, r.cfg.Processed.Redis.TTL)
}

func templates(s config.Settings) ai.Templates {
	t := ai.Templates{
		ServiceOfferings: s.Prompts.ServiceOfferings,
		WritingStyle:     s.Prompts.WritingStyle,
		PortfolioLinks:   s.Prompts.PortfolioLinks,
		Signature:        s.Prompts.Signature,
	}
	for _, c := range s.Components {
		t.Components = append(t.Components, ai.Component{Name: c.Name, Budget: c.Budget, Timeline: c.Timeline})
	}
	return t
}
