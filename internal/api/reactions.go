package api

import (
	"context"
	"fmt"
	"net/url"
)

// AddReaction adds an emoji reaction to the message identified by channel
// and timestamp via reactions.add. name is the emoji short name without
// colons ("floppy_disk").
func (c *Client) AddReaction(ctx context.Context, name, channelID, timestamp string) error {
	params := url.Values{}
	params.Set("name", name)
	params.Set("channel", channelID)
	params.Set("timestamp", timestamp)

	if err := c.call(ctx, "reactions.add", params, nil); err != nil {
		return fmt.Errorf("reactions.add %s: %w", channelID, err)
	}
	return nil
}
