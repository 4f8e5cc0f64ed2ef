// Package config holds the immutable per-session bidding settings and the
// override layering used to build them.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spigell/fl-bidder/internal/retry"
)

const (
	DefaultQuota         = 75
	DefaultPageSize      = 10
	DefaultMinWait       = 32 * time.Second
	DefaultCycleInterval = 5 * time.Second
	DefaultBudgetFloor   = 30.0
)

// Settings is built once per session and must not be changed afterwards.
// Use Resolve to derive a new value.
type Settings struct {
	Quota              int
	PageSize           int
	SearchOffset       int
	MinPostAge         time.Duration
	CycleInterval      time.Duration
	EmptyInterval      time.Duration
	Retry              retry.Policy
	BudgetFloor        float64
	Skills             []int
	Languages          []string
	ExcludedCurrencies []string
	ExcludedCountries  []string
	Prompts            Prompts
	Components         []Component
}

// Component is a reference unit of work used to anchor budget recommendations.
type Component struct {
	Name     string `mapstructure:"name" json:"name"`
	Budget   int    `mapstructure:"budget" json:"budget"`
	Timeline int    `mapstructure:"timeline" json:"timeline"`
}

// Prompts are the drafting templates. Empty values mean the built-in default.
type Prompts struct {
	ServiceOfferings string `mapstructure:"service-offerings" json:"service_offerings,omitempty"`
	WritingStyle     string `mapstructure:"writing-style" json:"writing_style,omitempty"`
	PortfolioLinks   string `mapstructure:"portfolio-links" json:"portfolio_links,omitempty"`
	Signature        string `mapstructure:"signature" json:"signature,omitempty"`
}

// Overrides is one configuration layer. Nil pointers and nil slices leave the
// underlying value untouched.
type Overrides struct {
	Quota              *int           `mapstructure:"quota" json:"quota,omitempty"`
	PageSize           *int           `mapstructure:"page-size" json:"page_size,omitempty"`
	SearchOffset       *int           `mapstructure:"search-offset" json:"search_offset,omitempty"`
	MinWaitSeconds     *int           `mapstructure:"min-wait-seconds" json:"min_wait_seconds,omitempty"`
	CycleInterval      *time.Duration `mapstructure:"cycle-interval" json:"cycle_interval,omitempty"`
	EmptyInterval      *time.Duration `mapstructure:"empty-interval" json:"empty_interval,omitempty"`
	RetryAttempts      *int           `mapstructure:"retry-attempts" json:"retry_attempts,omitempty"`
	RetryDelay         *time.Duration `mapstructure:"retry-delay" json:"retry_delay,omitempty"`
	BudgetFloor        *float64       `mapstructure:"budget-floor" json:"budget_floor,omitempty"`
	Skills             []int          `mapstructure:"skills" json:"skills,omitempty"`
	Languages          []string       `mapstructure:"languages" json:"languages,omitempty"`
	ExcludedCurrencies []string       `mapstructure:"excluded-currencies" json:"excluded_currencies,omitempty"`
	ExcludedCountries  []string       `mapstructure:"excluded-countries" json:"excluded_countries,omitempty"`
	Prompts            Prompts        `mapstructure:"prompts" json:"prompts,omitempty"`
	Components         []Component    `mapstructure:"components" json:"components,omitempty"`
}

// Session identifies one bidding account and its overrides.
type Session struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	TokenFile  string `mapstructure:"token-file"`
	APIKeyFile string `mapstructure:"api-key-file"`

	Overrides `mapstructure:",squash"`
}

// Defaults returns the global default settings.
func Defaults() Settings {
	return Settings{
		Quota:              DefaultQuota,
		PageSize:           DefaultPageSize,
		MinPostAge:         DefaultMinWait,
		CycleInterval:      DefaultCycleInterval,
		EmptyInterval:      DefaultCycleInterval,
		Retry:              retry.DefaultPolicy(),
		BudgetFloor:        DefaultBudgetFloor,
		Skills:             slices.Clone(defaultSkills),
		Languages:          []string{"en"},
		ExcludedCurrencies: slices.Clone(defaultExcludedCurrencies),
		ExcludedCountries:  slices.Clone(defaultExcludedCountries),
	}
}

// Resolve applies layers on top of base in order, so later layers win.
// The result shares no slices with its inputs.
func Resolve(base Settings, layers ...Overrides) Settings {
	s := base.clone()

	for _, o := range layers {
		if o.Quota != nil {
			s.Quota = *o.Quota
		}
		if o.PageSize != nil {
			s.PageSize = *o.PageSize
		}
		if o.SearchOffset != nil {
			s.SearchOffset = *o.SearchOffset
		}
		if o.MinWaitSeconds != nil {
			s.MinPostAge = time.Duration(*o.MinWaitSeconds) * time.Second
		}
		if o.CycleInterval != nil {
			s.CycleInterval = *o.CycleInterval
		}
		if o.EmptyInterval != nil {
			s.EmptyInterval = *o.EmptyInterval
		}
		if o.RetryAttempts != nil {
			s.Retry.Attempts = *o.RetryAttempts
		}
		if o.RetryDelay != nil {
			s.Retry.Delay = *o.RetryDelay
		}
		if o.BudgetFloor != nil {
			s.BudgetFloor = *o.BudgetFloor
		}
		if o.Skills != nil {
			s.Skills = slices.Clone(o.Skills)
		}
		if o.Languages != nil {
			s.Languages = slices.Clone(o.Languages)
		}
		if o.ExcludedCurrencies != nil {
			s.ExcludedCurrencies = slices.Clone(o.ExcludedCurrencies)
		}
		if o.ExcludedCountries != nil {
			s.ExcludedCountries = slices.Clone(o.ExcludedCountries)
		}
		if o.Components != nil {
			s.Components = slices.Clone(o.Components)
		}
		s.Prompts = s.Prompts.merge(o.Prompts)
	}

	return s
}

// Validate reports settings the loop cannot run with.
func (s Settings) Validate() error {
	var errs []error
	if s.Quota <= 0 {
		errs = append(errs, fmt.Errorf("quota must be positive, got %d", s.Quota))
	}
	if s.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be positive, got %d", s.PageSize))
	}
	if s.SearchOffset < 0 {
		errs = append(errs, fmt.Errorf("search offset must not be negative, got %d", s.SearchOffset))
	}
	if s.Retry.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("retry attempts must be positive, got %d", s.Retry.Attempts))
	}
	if s.MinPostAge < 0 || s.CycleInterval < 0 || s.EmptyInterval < 0 || s.Retry.Delay < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}

	return errors.Join(errs...)
}

// ExcludedCountrySet returns the excluded countries lowercased for lookups.
func (s Settings) ExcludedCountrySet() map[string]struct{} {
	return toSet(s.ExcludedCountries, strings.ToLower)
}

// ExcludedCurrencySet returns the excluded currency codes uppercased for lookups.
func (s Settings) ExcludedCurrencySet() map[string]struct{} {
	return toSet(s.ExcludedCurrencies, strings.ToUpper)
}

func (s Settings) clone() Settings {
	c := s
	c.Skills = slices.Clone(s.Skills)
	c.Languages = slices.Clone(s.Languages)
	c.ExcludedCurrencies = slices.Clone(s.ExcludedCurrencies)
	c.ExcludedCountries = slices.Clone(s.ExcludedCountries)
	c.Components = slices.Clone(s.Components)
	return c
}

func (p Prompts) merge(o Prompts) Prompts {
	if v := strings.TrimSpace(o.ServiceOfferings); v != "" {
		p.ServiceOfferings = o.ServiceOfferings
	}
	if v := strings.TrimSpace(o.WritingStyle); v != "" {
		p.WritingStyle = o.WritingStyle
	}
	if v := strings.TrimSpace(o.PortfolioLinks); v != "" {
		p.PortfolioLinks = o.PortfolioLinks
	}
	if v := strings.TrimSpace(o.Signature); v != "" {
		p.Signature = o.Signature
	}
	return p
}

func toSet(values []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = norm(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
