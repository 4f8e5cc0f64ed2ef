package config

import (
	"strings"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	global := Defaults()
	session := Overrides{
		Quota:          ptr(20),
		PageSize:       ptr(25),
		MinWaitSeconds: ptr(40),
		Prompts:        Prompts{Signature: "Studio Team", WritingStyle: "  "},
	}
	explicit := Overrides{Quota: ptr(3)}

	s := Resolve(global, session, explicit)

	if s.Quota != 3 {
		t.Fatalf("explicit quota should win, got %d", s.Quota)
	}
	if s.PageSize != 25 {
		t.Fatalf("session page size should win over default, got %d", s.PageSize)
	}
	if s.MinPostAge != 40*time.Second {
		t.Fatalf("unexpected min post age: %s", s.MinPostAge)
	}
	if s.CycleInterval != DefaultCycleInterval {
		t.Fatalf("default cycle interval expected, got %s", s.CycleInterval)
	}
	if s.Prompts.Signature != "Studio Team" || s.Prompts.WritingStyle != "" {
		t.Fatalf("unexpected prompts: %+v", s.Prompts)
	}
}

func TestResolveDoesNotShareSlices(t *testing.T) {
	t.Parallel()

	global := Defaults()
	countries := []string{"nowhere"}
	s := Resolve(global, Overrides{ExcludedCountries: countries})

	countries[0] = "changed"
	if s.ExcludedCountries[0] != "nowhere" {
		t.Fatalf("resolved settings must not alias override slices")
	}

	s.Skills[0] = -1
	if global.Skills[0] == -1 {
		t.Fatalf("resolved settings must not alias base slices")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}

	bad := Resolve(Defaults(), Overrides{Quota: ptr(0), PageSize: ptr(-1), RetryAttempts: ptr(0)})
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"quota", "page size", "retry attempts"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestExclusionSetsAreNormalised(t *testing.T) {
	t.Parallel()

	s := Resolve(Defaults(), Overrides{
		ExcludedCountries:  []string{" India ", ""},
		ExcludedCurrencies: []string{"inr"},
	})

	if _, ok := s.ExcludedCountrySet()["india"]; !ok {
		t.Fatalf("expected lowercased country")
	}
	if _, ok := s.ExcludedCurrencySet()["INR"]; !ok {
		t.Fatalf("expected uppercased currency")
	}
	if len(s.ExcludedCountrySet()) != 1 {
		t.Fatalf("empty entries must be dropped")
	}
}
