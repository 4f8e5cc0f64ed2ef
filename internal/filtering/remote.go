package filtering

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/fl-bidder/internal/freelancer"
	"github.com/spigell/fl-bidder/internal/logger"
)

var errNoMarketplace = errors.New("marketplace client is required")

type alreadyBidFilter struct{ toggle }

// NewAlreadyBid drops projects the authenticated account has already bid on.
func NewAlreadyBid() Filter {
	return &alreadyBidFilter{}
}

func (f *alreadyBidFilter) Name() string { return "already_bid" }

func (f *alreadyBidFilter) Validate(*Config) error { return nil }

func (f *alreadyBidFilter) Apply(ctx context.Context, deps Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	if deps.API == nil {
		return p, Step{}, errNoMarketplace
	}
	log := loggerOf(deps)

	self, err := deps.API.SelfUserID(ctx)
	if err != nil {
		log.Warn("skipping already bid check: cannot resolve own user id", zap.Error(err))
		return p, Step{Initial: p.Len(), Left: p.Len()}, nil
	}

	kept, step := keep(p, func(project *freelancer.Project) bool {
		bids, err := deps.API.ProjectBids(ctx, project.ID)
		if err != nil {
			log.Debug("listing project bids failed", logger.Project(project.ID), zap.Error(err))
			return true
		}
		for _, bid := range bids {
			if bid != nil && bid.BidderID == self {
				return false
			}
		}
		return true
	})

	return kept, step, nil
}

func (f *alreadyBidFilter) Status() Status { return f.status(f.Name(), nil) }

type excludedCountryFilter struct {
	toggle
	countries map[string]struct{}
}

// NewExcludedCountry drops projects whose owner is located in an excluded country.
// Owners that cannot be looked up are dropped too.
func NewExcludedCountry() Filter {
	return &excludedCountryFilter{}
}

func (f *excludedCountryFilter) Name() string { return "excluded_country" }

func (f *excludedCountryFilter) Validate(cfg *Config) error {
	f.countries = map[string]struct{}{}
	if cfg != nil {
		for _, country := range cfg.ExcludedCountries {
			f.countries[strings.ToLower(strings.TrimSpace(country))] = struct{}{}
		}
	}
	return nil
}

func (f *excludedCountryFilter) Apply(ctx context.Context, deps Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	if deps.API == nil {
		return p, Step{}, errNoMarketplace
	}
	log := loggerOf(deps)

	countries := make(map[int64]string)
	kept, step := keep(p, func(project *freelancer.Project) bool {
		country, ok := countries[project.OwnerID]
		if !ok {
			owner, err := deps.API.User(ctx, project.OwnerID)
			if err != nil {
				log.Debug("owner lookup failed", logger.Project(project.ID), zap.Int64("owner_id", project.OwnerID), zap.Error(err))
				return false
			}
			country = owner.CountryName()
			countries[project.OwnerID] = country
		}
		_, excluded := f.countries[country]
		return !excluded
	})

	return kept, step, nil
}

func (f *excludedCountryFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"countries": joinSet(f.countries)})
}

type detailsFilter struct {
	toggle
	floor float64
}

// NewDetails enriches projects with their full title, description and budget.
// Projects without details and fixed price projects whose maximum budget does
// not exceed the floor are dropped.
func NewDetails() Filter {
	return &detailsFilter{}
}

func (f *detailsFilter) Name() string { return "details" }

func (f *detailsFilter) Validate(cfg *Config) error {
	f.floor = 0
	if cfg != nil {
		f.floor = cfg.BudgetFloor
	}
	if f.floor < 0 {
		return errors.New("budget floor must not be negative")
	}
	return nil
}

func (f *detailsFilter) Apply(ctx context.Context, deps Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	if deps.API == nil {
		return p, Step{}, errNoMarketplace
	}
	log := loggerOf(deps)

	kept, step := keep(p, func(project *freelancer.Project) bool {
		details, err := deps.API.ProjectDetails(ctx, []int64{project.ID})
		if err != nil {
			log.Debug("project details lookup failed", logger.Project(project.ID), zap.Error(err))
			return false
		}
		found := details.FindByID(project.ID)
		if found == nil {
			log.Debug("project details are empty", logger.Project(project.ID))
			return false
		}
		if project.IsFixed() && found.Budget.Maximum <= f.floor {
			return false
		}

		project.Enrich(found)
		return true
	})

	return kept, step, nil
}

func (f *detailsFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"budget_floor": strconv.FormatFloat(f.floor, 'f', -1, 64)})
}

func loggerOf(deps Deps) *zap.Logger {
	if deps.Logger == nil {
		return zap.NewNop()
	}
	return deps.Logger
}

func joinSet(set map[string]struct{}) string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	slices.Sort(items)
	return strings.Join(items, ",")
}
