package api

import (
	"context"
	"fmt"
)

// RTMConnect requests a fresh websocket URL via rtm.connect. The URL is
// single-use and expires within 30 seconds, so the connection manager calls
// this before every dial, including reconnects.
func (c *Client) RTMConnect(ctx context.Context) (*RTMConnectResponse, error) {
	var resp RTMConnectResponse
	if err := c.call(ctx, "rtm.connect", nil, &resp); err != nil {
		return nil, fmt.Errorf("rtm.connect: %w", err)
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("rtm.connect: response carried no websocket url")
	}
	return &resp, nil
}
