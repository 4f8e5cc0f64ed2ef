// Package bidding holds the pure bid economics: amount, period and proposal
// composition derived from a project and the model's recommendation.
package bidding

import (
	"math"

	"github.com/spigell/fl-bidder/internal/freelancer"
)

const (
	// MinFixedAmount is the lowest amount ever bid on a fixed-price project.
	MinFixedAmount = 70.0
	// MinHourlyRate is the lowest hourly rate ever bid.
	MinHourlyRate = 25.0
	// NoRateAmount is used when a proposed budget cannot be converted because
	// the exchange rate is zero.
	NoRateAmount = 1000.0

	DefaultFixedPeriod  = 7
	DefaultHourlyPeriod = 40
)

// Amount computes the bid amount for project. proposed is the model's budget
// in the reference currency; zero means no recommendation.
func Amount(project *freelancer.Project, proposed int) float64 {
	rate := project.Currency.ExchangeRate
	minBudget := project.Budget.Minimum
	maxBudget := project.Budget.Maximum

	var amount float64
	switch {
	case project.IsFixed() && proposed != 0:
		budget := math.Max(MinFixedAmount, float64(proposed))
		if rate != 0 {
			amount = budget / rate
		} else {
			amount = NoRateAmount
		}
		amount = math.Max(minBudget, amount)
		if maxBudget != 0 {
			amount = math.Min(maxBudget, amount)
		}
	case project.IsFixed():
		amount = math.Max(MinFixedAmount, (minBudget+maxBudget)/1.5)
		if maxBudget != 0 {
			amount = math.Min(maxBudget, amount)
		}
	default:
		amount = MinHourlyRate
		if maxBudget != 0 {
			amount = math.Max(MinHourlyRate, (minBudget+maxBudget)/2)
		}
	}

	return round2(amount)
}

// Period returns the recommended deadline when positive, otherwise the
// default for the project type.
func Period(project *freelancer.Project, recommended int) int {
	if recommended > 0 {
		return recommended
	}
	if project.IsFixed() {
		return DefaultFixedPeriod
	}
	return DefaultHourlyPeriod
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
