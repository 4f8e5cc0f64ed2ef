package filtering

import (
	"context"
	"strings"

	"github.com/spigell/fl-bidder/internal/freelancer"
)

type requiredFieldsFilter struct{ toggle }

// NewRequiredFields drops projects without a project or owner identifier.
func NewRequiredFields() Filter {
	return &requiredFieldsFilter{}
}

func (f *requiredFieldsFilter) Name() string { return "required_fields" }

func (f *requiredFieldsFilter) Validate(*Config) error { return nil }

func (f *requiredFieldsFilter) Apply(_ context.Context, _ Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	kept, step := keep(p, func(project *freelancer.Project) bool {
		return project != nil && project.ID != 0 && project.OwnerID != 0
	})
	return kept, step, nil
}

func (f *requiredFieldsFilter) Status() Status { return f.status(f.Name(), nil) }

type excludedCurrencyFilter struct {
	toggle
	currencies map[string]struct{}
}

// NewExcludedCurrency drops projects paid in an excluded currency.
func NewExcludedCurrency() Filter {
	return &excludedCurrencyFilter{}
}

func (f *excludedCurrencyFilter) Name() string { return "excluded_currency" }

func (f *excludedCurrencyFilter) Validate(cfg *Config) error {
	f.currencies = map[string]struct{}{}
	if cfg != nil {
		for _, code := range cfg.ExcludedCurrencies {
			f.currencies[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
		}
	}
	return nil
}

func (f *excludedCurrencyFilter) Apply(_ context.Context, _ Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	kept, step := keep(p, func(project *freelancer.Project) bool {
		_, excluded := f.currencies[strings.ToUpper(project.Currency.Code)]
		return !excluded
	})
	return kept, step, nil
}

func (f *excludedCurrencyFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"currencies": joinSet(f.currencies)})
}

type ndaFilter struct{ toggle }

// NewNDA drops projects that require a non-disclosure agreement.
func NewNDA() Filter {
	return &ndaFilter{}
}

func (f *ndaFilter) Name() string { return "nda" }

func (f *ndaFilter) Validate(*Config) error { return nil }

func (f *ndaFilter) Apply(_ context.Context, _ Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	kept, step := keep(p, func(project *freelancer.Project) bool {
		return !project.Upgrades.NDA
	})
	return kept, step, nil
}

func (f *ndaFilter) Status() Status { return f.status(f.Name(), nil) }

type activeFilter struct{ toggle }

// NewActive drops projects that are no longer open for bids.
func NewActive() Filter {
	return &activeFilter{}
}

func (f *activeFilter) Name() string { return "active" }

func (f *activeFilter) Validate(*Config) error { return nil }

func (f *activeFilter) Apply(_ context.Context, _ Deps, p freelancer.Projects) (freelancer.Projects, Step, error) {
	kept, step := keep(p, (*freelancer.Project).IsActive)
	return kept, step, nil
}

func (f *activeFilter) Status() Status { return f.status(f.Name(), nil) }
