package freelancer

import (
	"context"
	"fmt"
	"strings"
)

type User struct {
	ID       int64    `json:"id,omitempty"`
	Username string   `json:"username,omitempty"`
	Location Location `json:"location,omitempty"`
}

type Location struct {
	City    string  `json:"city,omitempty"`
	Country Country `json:"country,omitempty"`
}

type Country struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// User returns the public profile of the given account.
func (c *Client) User(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := c.getJSON(ctx, fmt.Sprintf("%s/users/%d/", usersPath, id), nil, &user); err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	return &user, nil
}

// CountryName returns the lowercased country of the user, or an empty string.
func (u *User) CountryName() string {
	return strings.ToLower(strings.TrimSpace(u.Location.Country.Name))
}
