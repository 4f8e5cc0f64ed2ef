package freelancer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://www.freelancer.com"
	userAgent = "spigell/fl-bidder"

	projectsPath = "/api/projects/0.1"
	usersPath    = "/api/users/0.1"
)

// Client talks to the Freelancer REST API on behalf of a single account.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string

	selfMu sync.Mutex
	selfID int64
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// SelfUserID returns the identifier of the authenticated account.
// The value is cached after the first successful lookup.
func (c *Client) SelfUserID(ctx context.Context) (int64, error) {
	c.selfMu.Lock()
	defer c.selfMu.Unlock()

	if c.selfID != 0 {
		return c.selfID, nil
	}

	var user User
	if err := c.getJSON(ctx, usersPath+"/self/", nil, &user); err != nil {
		return 0, err
	}

	c.selfID = user.ID
	return c.selfID, nil
}
