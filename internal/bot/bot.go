// Package bot runs the decision loop of one bidding session: search, drop
// processed projects, filter, judge, draft, price, bid and record, until the
// bid quota is reached or the session is stopped.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/audit"
	"github.com/spigell/fl-bidder/internal/config"
	"github.com/spigell/fl-bidder/internal/freelancer"
	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/processed"
	"github.com/spigell/fl-bidder/internal/store"
	"github.com/spigell/fl-bidder/internal/utils"
)

// ErrLoopUsed is returned when Run is called on a loop that already ran.
var ErrLoopUsed = errors.New("loop has already been run")

// ProjectSource finds candidate projects.
type ProjectSource interface {
	Search(ctx context.Context, limit, offset int) (freelancer.Projects, error)
}

// Screener applies the business rules to a batch of new projects.
type Screener interface {
	Screen(ctx context.Context, projects freelancer.Projects) (freelancer.Projects, error)
}

// Advisor is the language model side of the loop.
type Advisor interface {
	Match(ctx context.Context, project *freelancer.Project) (bool, error)
	DraftProposal(ctx context.Context, project *freelancer.Project) (string, error)
	RecommendTerms(ctx context.Context, project *freelancer.Project) (string, error)
}

// Bidder submits bids.
type Bidder interface {
	PlaceBid(ctx context.Context, project *freelancer.Project, amount float64, period int, description string) (*freelancer.Bid, error)
}

// Recorder persists what the loop does.
type Recorder interface {
	SaveProject(ctx context.Context, project *freelancer.Project) error
	SaveBid(ctx context.Context, bid store.BidRecord) (int64, error)
	SaveSession(ctx context.Context, session store.SessionRecord) error
	LogActivity(ctx context.Context, entry store.ActivityEntry) error
}

// BidLog receives one entry per placed bid.
type BidLog interface {
	Append(entry audit.Entry) error
}

// Deps are the collaborators of a loop. Recorder and BidLog are optional.
type Deps struct {
	Source    ProjectSource
	Screener  Screener
	Advisor   Advisor
	Bidder    Bidder
	Processed processed.Set
	Recorder  Recorder
	BidLog    BidLog
	Logger    *zap.Logger
}

func (d Deps) validate() error {
	var missing []error
	if d.Source == nil {
		missing = append(missing, errors.New("project source is required"))
	}
	if d.Screener == nil {
		missing = append(missing, errors.New("screener is required"))
	}
	if d.Advisor == nil {
		missing = append(missing, errors.New("advisor is required"))
	}
	if d.Bidder == nil {
		missing = append(missing, errors.New("bidder is required"))
	}
	return errors.Join(missing...)
}

// Loop is a single use decision loop. Create a new one for every run.
type Loop struct {
	settings config.Settings
	deps     Deps
	log      *zap.Logger

	mu    sync.Mutex
	state State

	used     atomic.Bool
	running  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once

	now   func() time.Time
	pause func(ctx context.Context, stop <-chan struct{}, d time.Duration) (bool, error)
}

// New builds a loop for a session. An empty id gets a random one.
func New(id, name string, settings config.Settings, deps Deps) (*Loop, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Processed == nil {
		deps.Processed = processed.NewMemorySet()
	}
	if id == "" {
		id = uuid.NewString()
	}

	return &Loop{
		settings: settings,
		deps:     deps,
		log:      logger.WithSession(deps.Logger, id, name),
		state: State{
			SessionID: id,
			Name:      name,
			Status:    StatusIdle,
			Quota:     settings.Quota,
		},
		stop:  make(chan struct{}),
		now:   time.Now,
		pause: utils.Pause,
	}, nil
}

func (l *Loop) ID() string {
	return l.state.SessionID
}

// Stop asks the loop to finish. It is observed at the top of each cycle and
// before each bid attempt; calls already in flight are not interrupted.
func (l *Loop) Stop() {
	l.running.Store(false)
	l.stopOnce.Do(func() { close(l.stop) })

	l.mu.Lock()
	if l.state.Status == StatusRunning {
		l.state.Status = StatusStopping
	}
	l.mu.Unlock()
}

// Run drives cycles until the quota is reached, Stop is called or ctx is
// done. The final state is returned together with ctx's error, if any.
func (l *Loop) Run(ctx context.Context) (State, error) {
	if !l.used.CompareAndSwap(false, true) {
		return l.State(), ErrLoopUsed
	}

	l.running.Store(true)
	l.update(func(s *State) {
		s.Status = StatusRunning
		s.StartedAt = l.now()
	})
	l.persistSession(ctx)
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("bot started with bid quota %d", l.settings.Quota), 0, nil)

	// A stop requested before Run started still wins.
	select {
	case <-l.stop:
		l.running.Store(false)
	default:
	}

	err := l.loop(ctx)
	l.finish(context.WithoutCancel(ctx), err)

	return l.State(), err
}

func (l *Loop) loop(ctx context.Context) error {
	for l.running.Load() && !l.quotaReached() {
		empty, err := l.cycle(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		l.update(func(s *State) { s.Cycles++ })

		if err != nil {
			l.update(func(s *State) { s.Errors++ })
			l.activity(ctx, store.LevelError, fmt.Sprintf("error in bot loop: %v", err), 0, nil)
			l.persistSession(ctx)
		}

		if l.quotaReached() {
			l.activity(ctx, store.LevelInfo, "bid quota reached, stopping", 0, nil)
			return nil
		}

		interval := l.settings.CycleInterval
		if empty {
			interval = l.settings.EmptyInterval
		}
		if _, err := l.pause(ctx, l.stop, interval); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loop) finish(ctx context.Context, runErr error) {
	l.running.Store(false)
	l.update(func(s *State) {
		s.Status = StatusStopped
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			s.Status = StatusError
		}
		s.EndedAt = l.now()
	})
	l.persistSession(ctx)

	state := l.State()
	l.activity(ctx, store.LevelInfo, fmt.Sprintf("bot stopped, total bids placed: %d", state.BidsPlaced), 0, nil)
}

func (l *Loop) quotaReached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.BidsPlaced >= l.settings.Quota
}

func (l *Loop) update(fn func(s *State)) {
	l.mu.Lock()
	fn(&l.state)
	l.mu.Unlock()
}
