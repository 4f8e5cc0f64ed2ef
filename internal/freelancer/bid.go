package freelancer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const fullMilestone = 100

type Bid struct {
	ID          int64   `json:"id,omitempty"`
	ProjectID   int64   `json:"project_id,omitempty"`
	BidderID    int64   `json:"bidder_id,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	Period      int     `json:"period,omitempty"`
	Description string  `json:"description,omitempty"`
}

type BidRequest struct {
	ProjectID           int64   `json:"project_id"`
	BidderID            int64   `json:"bidder_id"`
	Amount              float64 `json:"amount"`
	Period              int     `json:"period"`
	MilestonePercentage int     `json:"milestone_percentage"`
	Description         string  `json:"description"`
}

type bidsResult struct {
	Bids []*Bid `json:"bids"`
}

// ProjectBids lists the bids placed on a project.
func (c *Client) ProjectBids(ctx context.Context, projectID int64) ([]*Bid, error) {
	q := url.Values{}
	q.Add("projects[]", strconv.FormatInt(projectID, 10))

	var result bidsResult
	if err := c.getJSON(ctx, projectsPath+"/bids/", q, &result); err != nil {
		return nil, fmt.Errorf("get bids for project %d: %w", projectID, err)
	}

	return result.Bids, nil
}

// SubmitBid places a bid. The whole amount is requested as a single milestone
// unless MilestonePercentage is set.
func (c *Client) SubmitBid(ctx context.Context, req BidRequest) (*Bid, error) {
	if req.MilestonePercentage == 0 {
		req.MilestonePercentage = fullMilestone
	}

	var bid Bid
	if err := c.sendJSON(ctx, http.MethodPost, projectsPath+"/bids/", nil, req, &bid); err != nil {
		return nil, fmt.Errorf("place bid on project %d: %w", req.ProjectID, err)
	}

	if bid.ID == 0 {
		return nil, fmt.Errorf("place bid on project %d: api returned no bid id", req.ProjectID)
	}

	return &bid, nil
}

// SealBid highlights an already placed bid.
func (c *Client) SealBid(ctx context.Context, bidID int64) error {
	q := url.Values{}
	q.Set("action", "seal")

	path := fmt.Sprintf("%s/bids/%d/", projectsPath, bidID)
	if err := c.do(ctx, http.MethodPut, path, q, nil, formContentType, nil); err != nil {
		return fmt.Errorf("seal bid %d: %w", bidID, err)
	}

	return nil
}
