package freelancer

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/fl-bidder/internal/logger"
	"github.com/spigell/fl-bidder/internal/retry"
	"github.com/spigell/fl-bidder/internal/utils"
	"go.uber.org/zap"
)

// DefaultMinPostAge is how old a project must be before a bid is submitted.
const DefaultMinPostAge = 32 * time.Second

type bidAPI interface {
	SelfUserID(ctx context.Context) (int64, error)
	SubmitBid(ctx context.Context, req BidRequest) (*Bid, error)
	SealBid(ctx context.Context, bidID int64) error
}

// Bidder places bids while respecting the minimum project age and seals
// every placed bid.
type Bidder struct {
	api        bidAPI
	minPostAge time.Duration
	policy     retry.Policy
	logger     *zap.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

func NewBidder(client *Client, minPostAge time.Duration, policy retry.Policy, log *zap.Logger) *Bidder {
	return newBidder(client, minPostAge, policy, log)
}

func newBidder(api bidAPI, minPostAge time.Duration, policy retry.Policy, log *zap.Logger) *Bidder {
	if minPostAge < 0 {
		minPostAge = 0
	}

	return &Bidder{
		api:        api,
		minPostAge: minPostAge,
		policy:     policy,
		logger:     logger.WithFields(log),
		now:        time.Now,
		wait:       utils.WaitFor,
	}
}

// PlaceBid submits a bid on project and seals it. A failed seal is logged and
// does not invalidate the returned bid.
func (b *Bidder) PlaceBid(ctx context.Context, project *Project, amount float64, period int, description string) (*Bid, error) {
	if err := b.waitForPostAge(ctx, project); err != nil {
		return nil, err
	}

	bidderID, err := retry.Do(ctx, b.logger, "get self user id", b.policy, b.api.SelfUserID)
	if err != nil {
		return nil, err
	}

	req := BidRequest{
		ProjectID:           project.ID,
		BidderID:            bidderID,
		Amount:              amount,
		Period:              period,
		MilestonePercentage: fullMilestone,
		Description:         description,
	}

	bid, err := retry.Do(ctx, b.logger, "place bid", b.policy, func(ctx context.Context) (*Bid, error) {
		return b.api.SubmitBid(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	b.logger.Info("bid placed",
		logger.Project(project.ID),
		zap.Int64("bid_id", bid.ID),
		zap.Float64("amount", amount),
		zap.Int("period", period),
		zap.String("link", project.Link()),
	)

	_, err = retry.Do(ctx, b.logger, "seal bid", b.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.api.SealBid(ctx, bid.ID)
	})
	if err != nil {
		b.logger.Warn("sealing bid failed", logger.Project(project.ID), zap.Int64("bid_id", bid.ID), zap.Error(err))
	}

	return bid, nil
}

func (b *Bidder) waitForPostAge(ctx context.Context, project *Project) error {
	if project.SubmitDate == 0 || b.minPostAge <= 0 {
		return nil
	}

	elapsed := b.now().Sub(project.SubmittedAt())
	if elapsed >= b.minPostAge {
		return nil
	}

	wait := min(b.minPostAge-elapsed, b.minPostAge).Round(time.Second)
	if wait <= 0 {
		return nil
	}

	b.logger.Info("waiting until project is old enough",
		logger.Project(project.ID),
		zap.Duration("wait", wait),
		zap.Duration("min_post_age", b.minPostAge),
	)

	if err := b.wait(ctx, wait); err != nil {
		return fmt.Errorf("waiting for project %d to age: %w", project.ID, err)
	}

	return nil
}
