package freelancer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(zap.NewNop(), "secret-token")
	client.APIURL = server.URL
	return client
}

func writeResult(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"status": "success", "result": result}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestSearchBuildsQueryAndDecodesProjects(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/0.1/projects/active/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get(authHeader); got != "secret-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}

		q := r.URL.Query()
		if !reflect.DeepEqual(q["jobs[]"], []string{"3", "17"}) {
			t.Fatalf("unexpected jobs: %v", q["jobs[]"])
		}
		if !reflect.DeepEqual(q["languages[]"], []string{"en"}) {
			t.Fatalf("unexpected languages: %v", q["languages[]"])
		}
		if q.Get("limit") != "10" || q.Get("sort_field") != "time_updated" || q.Get("or_search_query") != "true" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Has("offset") {
			t.Fatalf("zero offset should be omitted")
		}

		writeResult(t, w, map[string]any{
			"projects": []map[string]any{{
				"id":         101,
				"owner_id":   202,
				"title":      "Logo for a bakery",
				"status":     "active",
				"type":       "fixed",
				"seo_url":    "graphic-design/logo-bakery",
				"submitdate": 1700000000,
				"currency":   map[string]any{"code": "USD", "exchange_rate": 1},
				"budget":     map[string]any{"minimum": 30, "maximum": 250},
				"upgrades":   map[string]any{"NDA": true},
			}},
		})
	})

	projects, err := NewFeed(client, []int{3, 17}, []string{"en"}).Search(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if projects.Len() != 1 {
		t.Fatalf("expected 1 project, got %d", projects.Len())
	}

	p := projects[0]
	if p.ID != 101 || p.OwnerID != 202 || !p.IsFixed() || !p.IsActive() {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.Currency.Code != "USD" || p.Currency.ExchangeRate != 1 {
		t.Fatalf("unexpected currency: %+v", p.Currency)
	}
	if p.Budget.Maximum != 250 || !p.Upgrades.NDA {
		t.Fatalf("unexpected budget or upgrades: %+v %+v", p.Budget, p.Upgrades)
	}
	if p.Link() != "https://www.freelancer.com/projects/graphic-design/logo-bakery/details" {
		t.Fatalf("unexpected link: %s", p.Link())
	}
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "error",
			"message":    "You must be authenticated",
			"error_code": "NOT_AUTHORIZED",
		})
	})

	_, err := client.User(context.Background(), 5)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != "NOT_AUTHORIZED" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestSelfUserIDIsCached(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/0.1/self/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		calls.Add(1)
		writeResult(t, w, map[string]any{"id": 77, "username": "studio"})
	})

	for range 3 {
		id, err := client.SelfUserID(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 77 {
			t.Fatalf("unexpected id: %d", id)
		}
	}

	if calls.Load() != 1 {
		t.Fatalf("expected one lookup, got %d", calls.Load())
	}
}

func TestSubmitBidSendsFullMilestone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/projects/0.1/bids/" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req BidRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MilestonePercentage != 100 || req.Amount != 250 || req.Period != 5 || req.BidderID != 9 {
			t.Fatalf("unexpected bid request: %+v", req)
		}

		writeResult(t, w, map[string]any{"id": 555, "project_id": req.ProjectID})
	})

	bid, err := client.SubmitBid(context.Background(), BidRequest{ProjectID: 1, BidderID: 9, Amount: 250, Period: 5, Description: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.ID != 555 {
		t.Fatalf("unexpected bid id: %d", bid.ID)
	}
}

func TestSealBidUsesSealAction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/projects/0.1/bids/555/" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("action") != "seal" {
			t.Fatalf("unexpected action: %s", r.URL.RawQuery)
		}
		if r.Header.Get("Content-Type") != formContentType {
			t.Fatalf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}
		writeResult(t, w, map[string]any{})
	})

	if err := client.SealBid(context.Background(), 555); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProjectBidsAndDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects/0.1/bids/":
			if r.URL.Query().Get("projects[]") != "42" {
				t.Fatalf("unexpected bids query: %s", r.URL.RawQuery)
			}
			writeResult(t, w, map[string]any{"bids": []map[string]any{{"id": 1, "bidder_id": 9}}})
		case "/api/projects/0.1/projects/":
			if r.URL.Query().Get("full_description") != "true" {
				t.Fatalf("expected full description flag")
			}
			writeResult(t, w, map[string]any{"projects": []map[string]any{{
				"id":          42,
				"title":       "Full title",
				"description": "Full description",
				"budget":      map[string]any{"minimum": 100, "maximum": nil},
			}}})
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	})

	bids, err := client.ProjectBids(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bids) != 1 || bids[0].BidderID != 9 {
		t.Fatalf("unexpected bids: %+v", bids)
	}

	details, err := client.ProjectDetails(context.Background(), []int64{42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Len() != 1 || details[0].Description != "Full description" || details[0].Budget.Minimum != 100 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestProjectLinkFallsBackToID(t *testing.T) {
	p := &Project{ID: 42}
	if got := p.Link(); got != "https://www.freelancer.com/projects/42" {
		t.Fatalf("unexpected link: %s", got)
	}
}

func TestProjectsKeepPreservesOrder(t *testing.T) {
	projects := Projects{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	kept := projects.Keep(func(p *Project) bool { return p.ID%2 == 0 })

	if !reflect.DeepEqual(kept.IDs(), []int64{2, 4}) {
		t.Fatalf("unexpected order: %v", kept.IDs())
	}
}
