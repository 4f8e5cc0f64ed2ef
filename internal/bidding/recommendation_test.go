package bidding

import "testing"

func TestParseRecommendation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect Recommendation
		ok     bool
	}{
		{
			name:   "compact format",
			input:  "Budget: 500 USD, Deadline: 10 days",
			expect: Recommendation{Budget: 500, Deadline: 10},
			ok:     true,
		},
		{
			name:  "no recommendation",
			input: "no recommendation",
		},
		{
			name:  "budget only is not partially filled",
			input: "Budget: 500 USD",
		},
		{
			name:  "deadline only is not partially filled",
			input: "Deadline: 4 days",
		},
		{
			name:  "keyword is case-sensitive",
			input: "budget: 500 USD, deadline: 10 days",
		},
		{
			name:   "first match wins",
			input:  "Budget: 300 USD, Deadline: 6 days\nBudget: 900 USD, Deadline: 20 days",
			expect: Recommendation{Budget: 300, Deadline: 6},
			ok:     true,
		},
		{
			name:   "decimals keep the integer part",
			input:  "Budget: 120.50 USD, Deadline: 3 days",
			expect: Recommendation{Budget: 120, Deadline: 3},
			ok:     true,
		},
		{
			name:  "negative numbers are not matched",
			input: "Budget: -5 USD, Deadline: 3 days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseRecommendation(tt.input)
			if ok != tt.ok || got != tt.expect {
				t.Fatalf("expected (%+v, %v), got (%+v, %v)", tt.expect, tt.ok, got, ok)
			}
		})
	}
}
