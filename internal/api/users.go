package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetUserInfo fetches workspace member metadata by ID via users.info.
func (c *Client) GetUserInfo(ctx context.Context, userID string) (*User, error) {
	params := url.Values{}
	params.Set("user", userID)

	var resp UserInfoResponse
	if err := c.call(ctx, "users.info", params, &resp); err != nil {
		return nil, fmt.Errorf("users.info %s: %w", userID, err)
	}
	return &resp.User, nil
}
