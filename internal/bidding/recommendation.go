package bidding

import (
	"regexp"
	"strconv"
)

var (
	budgetPattern   = regexp.MustCompile(`Budget:\s*(\d+)`)
	deadlinePattern = regexp.MustCompile(`Deadline:\s*(\d+)`)
)

// Recommendation is the budget and deadline suggested by the model.
type Recommendation struct {
	Budget   int
	Deadline int
}

// ParseRecommendation extracts "Budget: <int>" and "Deadline: <int>" from
// text. Both must be present, otherwise ok is false and the zero value is returned.
func ParseRecommendation(text string) (Recommendation, bool) {
	budget, ok := firstInt(budgetPattern, text)
	if !ok {
		return Recommendation{}, false
	}

	deadline, ok := firstInt(deadlinePattern, text)
	if !ok {
		return Recommendation{}, false
	}

	return Recommendation{Budget: budget, Deadline: deadline}, true
}

func firstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return v, true
}
