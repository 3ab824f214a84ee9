package api

import (
	"context"
	"fmt"
)

// AuthTest checks the token against auth.test and returns the bot's
// identity. Called once at startup: a failure here means the token is
// missing, revoked, or malformed.
func (c *Client) AuthTest(ctx context.Context) (*AuthTestResponse, error) {
	var resp AuthTestResponse
	if err := c.call(ctx, "auth.test", nil, &resp); err != nil {
		return nil, fmt.Errorf("auth.test: %w", err)
	}
	return &resp, nil
}
