// Package filtering narrows a batch of searched projects down to the ones
// worth judging. Each step is a Filter; rejections are silent and keep the
// input order.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/freelancer"
)

// Filter represents a single filtering step applied to projects.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, p freelancer.Projects) (freelancer.Projects, Step, error)
}

// Marketplace is the part of the marketplace API the filters look things up in.
type Marketplace interface {
	SelfUserID(ctx context.Context) (int64, error)
	ProjectBids(ctx context.Context, projectID int64) ([]*freelancer.Bid, error)
	User(ctx context.Context, id int64) (*freelancer.User, error)
	ProjectDetails(ctx context.Context, ids []int64) (freelancer.Projects, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	API    Marketplace
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludedCurrencies []string
	ExcludedCountries  []string
	BudgetFloor        float64
	ExcludeFile        string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// toggle carries the enabled state shared by all filters.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

// Default returns the filters in the order they run: cheap local checks first,
// then the ones that need the marketplace API.
func Default() []Filter {
	return []Filter{
		NewRequiredFields(),
		NewExcludedCurrency(),
		NewNDA(),
		NewActive(),
		NewExcludeFile(),
		NewAlreadyBid(),
		NewExcludedCountry(),
		NewDetails(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the surviving projects.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, p freelancer.Projects) (freelancer.Projects, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}
		if p.Len() == 0 {
			break
		}

		next, info, err := step.Apply(ctx, deps, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		p = next
	}

	return p, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Pipeline binds filters to their configuration and dependencies.
type Pipeline struct {
	cfg   *Config
	deps  Deps
	steps []Filter
}

func NewPipeline(cfg *Config, deps Deps, steps ...Filter) *Pipeline {
	if len(steps) == 0 {
		steps = Default()
	}
	return &Pipeline{cfg: cfg, deps: deps, steps: steps}
}

// Screen runs the pipeline over a batch of projects.
func (p *Pipeline) Screen(ctx context.Context, projects freelancer.Projects) (freelancer.Projects, error) {
	return Run(ctx, p.cfg, p.deps, p.steps, projects)
}

func (p *Pipeline) Describe() []Status {
	return Describe(p.steps)
}

func keep(p freelancer.Projects, fn func(*freelancer.Project) bool) (freelancer.Projects, Step) {
	initial := p.Len()
	kept := p.Keep(fn)
	return kept, Step{Initial: initial, Dropped: initial - kept.Len(), Left: kept.Len()}
}
