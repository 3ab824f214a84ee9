package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetConversationInfo fetches channel metadata by ID via conversations.info.
func (c *Client) GetConversationInfo(ctx context.Context, channelID string) (*Conversation, error) {
	params := url.Values{}
	params.Set("channel", channelID)

	var resp ConversationInfoResponse
	if err := c.call(ctx, "conversations.info", params, &resp); err != nil {
		return nil, fmt.Errorf("conversations.info %s: %w", channelID, err)
	}
	return &resp.Channel, nil
}
