package bidding

import (
	"github.com/spigell/fl-bidder/internal/freelancer"
)

// Decision is everything needed to submit one bid. It is built once per
// accepted project and never changed afterwards.
type Decision struct {
	ProjectID    int64
	Proposal     string
	Amount       float64
	Period       int
	CurrencyCode string
}

// Decide combines the drafted proposal and the model's raw budget analysis
// into a Decision.
func Decide(project *freelancer.Project, draft, analysis string) Decision {
	rec, _ := ParseRecommendation(analysis)

	return Decision{
		ProjectID:    project.ID,
		Proposal:     ComposeProposal(draft),
		Amount:       Amount(project, rec.Budget),
		Period:       Period(project, rec.Deadline),
		CurrencyCode: project.Currency.Code,
	}
}

// ComposeProposal produces the final bid text from the drafted proposal.
func ComposeProposal(draft string) string {
	return draft
}
