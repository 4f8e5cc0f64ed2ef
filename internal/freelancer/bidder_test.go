package freelancer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spigell/fl-bidder/internal/retry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBidAPI struct {
	submitErrs []error
	sealErr    error
	submitted  []BidRequest
	sealed     []int64
}

func (f *fakeBidAPI) SelfUserID(context.Context) (int64, error) { return 9, nil }

func (f *fakeBidAPI) SubmitBid(_ context.Context, req BidRequest) (*Bid, error) {
	f.submitted = append(f.submitted, req)
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Bid{ID: 555, ProjectID: req.ProjectID}, nil
}

func (f *fakeBidAPI) SealBid(_ context.Context, id int64) error {
	f.sealed = append(f.sealed, id)
	return f.sealErr
}

func TestBidderWaitsForMinimumPostAge(t *testing.T) {
	api := &fakeBidAPI{}
	b := newBidder(api, 32*time.Second, retry.Policy{Attempts: 1}, zap.NewNop())

	now := time.Unix(1_700_000_010, 0)
	b.now = func() time.Time { return now }

	var waited []time.Duration
	b.wait = func(_ context.Context, d time.Duration) error {
		waited = append(waited, d)
		return nil
	}

	project := &Project{ID: 1, SubmitDate: 1_700_000_000}
	if _, err := b.PlaceBid(context.Background(), project, 100, 7, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(waited) != 1 || waited[0] != 22*time.Second {
		t.Fatalf("expected a single 22s wait, got %v", waited)
	}
}

func TestBidderSkipsWaitForOldProjects(t *testing.T) {
	api := &fakeBidAPI{}
	b := newBidder(api, 32*time.Second, retry.Policy{Attempts: 1}, zap.NewNop())
	b.now = func() time.Time { return time.Unix(1_700_000_100, 0) }
	b.wait = func(context.Context, time.Duration) error {
		t.Fatal("did not expect a wait")
		return nil
	}

	if _, err := b.PlaceBid(context.Background(), &Project{ID: 1, SubmitDate: 1_700_000_000}, 100, 7, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBidderSealFailureKeepsBid(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	api := &fakeBidAPI{sealErr: errors.New("seal rejected")}
	b := newBidder(api, 0, retry.Policy{Attempts: 2}, zap.New(core))

	bid, err := b.PlaceBid(context.Background(), &Project{ID: 3}, 70, 7, "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.ID != 555 {
		t.Fatalf("unexpected bid: %+v", bid)
	}

	if len(api.sealed) != 2 {
		t.Fatalf("expected seal to be retried twice, got %d", len(api.sealed))
	}

	if observed.FilterMessage("sealing bid failed").Len() != 1 {
		t.Fatalf("expected seal failure to be logged")
	}
}

func TestBidderRetriesSubmission(t *testing.T) {
	api := &fakeBidAPI{submitErrs: []error{errors.New("429"), nil}}
	b := newBidder(api, 0, retry.Policy{Attempts: 3}, zap.NewNop())

	if _, err := b.PlaceBid(context.Background(), &Project{ID: 3}, 70, 7, "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(api.submitted) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(api.submitted))
	}
	if api.submitted[0].MilestonePercentage != 100 || api.submitted[0].BidderID != 9 {
		t.Fatalf("unexpected request: %+v", api.submitted[0])
	}
}

func TestBidderReturnsExhaustedSubmission(t *testing.T) {
	api := &fakeBidAPI{submitErrs: []error{errors.New("a"), errors.New("b")}}
	b := newBidder(api, 0, retry.Policy{Attempts: 2}, zap.NewNop())

	_, err := b.PlaceBid(context.Background(), &Project{ID: 3}, 70, 7, "text")

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if len(api.sealed) != 0 {
		t.Fatalf("did not expect seal after failed submission")
	}
}
