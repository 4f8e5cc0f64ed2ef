// Package session keeps track of the configured bidding sessions and the
// loop currently running for each of them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/bot"
	"github.com/spigell/fl-bidder/internal/config"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrAlreadyRunning = errors.New("session is already running")
	ErrNotRunning     = errors.New("session is not running")
	ErrDuplicate      = errors.New("session is already registered")
)

// Profile is a session's identity together with its resolved settings.
type Profile struct {
	Session  config.Session
	Settings config.Settings
}

// Factory builds a fresh loop for a profile. It is called on every Start.
type Factory func(ctx context.Context, p Profile) (*bot.Loop, error)

// Status describes a registered session.
type Status struct {
	ID      string
	Name    string
	Running bool
	State   bot.State
	Err     error
}

type entry struct {
	profile Profile
	loop    *bot.Loop
	done    chan struct{}
	last    bot.State
	err     error
}

// Registry maps session identifiers to their configuration and running loop.
// Sessions share nothing but the factory.
type Registry struct {
	factory Factory
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

func NewRegistry(factory Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{factory: factory, logger: logger, entries: make(map[string]*entry)}
}

// Register adds a session and returns its id. Sessions without an id get a random one.
func (r *Registry) Register(p Profile) (string, error) {
	if p.Session.ID == "" {
		p.Session.ID = uuid.NewString()
	}
	if err := p.Settings.Validate(); err != nil {
		return "", fmt.Errorf("session %s: %w", p.Session.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[p.Session.ID]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicate, p.Session.ID)
	}
	r.entries[p.Session.ID] = &entry{profile: p}

	return p.Session.ID, nil
}

// Start builds a loop for the session and runs it in the background.
// Starting a running session is rejected with ErrAlreadyRunning.
func (r *Registry) Start(ctx context.Context, id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if e.loop != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, id)
	}

	loop, err := r.factory(ctx, e.profile)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("create loop for session %s: %w", id, err)
	}

	done := make(chan struct{})
	e.loop = loop
	e.done = done
	e.err = nil
	r.mu.Unlock()

	r.logger.Info("session started", zap.String("session_id", id), zap.String("session_name", e.profile.Session.Name))

	go func() {
		state, err := loop.Run(ctx)

		r.mu.Lock()
		e.last = state
		e.err = err
		e.loop = nil
		r.mu.Unlock()
		close(done)

		r.logger.Info("session finished",
			zap.String("session_id", id),
			zap.Int("bids_placed", state.BidsPlaced),
			zap.Error(err),
		)
	}()

	return nil
}

// Stop asks the running loop of a session to finish after its current bid attempt.
func (r *Registry) Stop(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if e.loop == nil {
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	}

	e.loop.Stop()
	return nil
}

// StopAll asks every running loop to finish.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.loop != nil {
			e.loop.Stop()
		}
	}
}

// Wait blocks until the latest run of the session finishes and returns its
// final state.
func (r *Registry) Wait(ctx context.Context, id string) (bot.State, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return bot.State{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	done := e.done
	r.mu.Unlock()

	if done == nil {
		return bot.State{}, fmt.Errorf("%w: %s", ErrNotRunning, id)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return bot.State{}, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return e.last, e.err
}

// Status returns the current status of a session.
func (r *Registry) Status(id string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return e.status(id), nil
}

// Statuses returns the status of all sessions ordered by id.
func (r *Registry) Statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, e.status(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the registered session ids in order.
func (r *Registry) IDs() []string {
	statuses := r.Statuses()
	ids := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ids = append(ids, s.ID)
	}
	return ids
}

// Profile returns the registered profile of a session.
func (r *Registry) Profile(id string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return e.profile, nil
}

func (e *entry) status(id string) Status {
	s := Status{ID: id, Name: e.profile.Session.Name, State: e.last, Err: e.err}
	if e.loop != nil {
		s.Running = true
		s.State = e.loop.State()
	}
	return s
}
