package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL            = "https://slack.com/api"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultReaction           = "floppy_disk"
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultPingInterval       = 15 * time.Second
	DefaultPongTimeout        = 40 * time.Second
	DefaultBufferSize         = 1024
)

// DefaultEvents returns the event types archived when the config names
// none: messages, membership changes, files, pins, and reactions.
func DefaultEvents() []string {
	return []string{
		"file_change",
		"file_comment_added",
		"file_comment_deleted",
		"file_comment_edited",
		"file_created",
		"file_deleted",
		"file_public",
		"file_shared",
		"file_unshared",
		"member_joined_channel",
		"member_left_channel",
		"message",
		"pin_added",
		"pin_removed",
		"reaction_added",
		"reaction_removed",
	}
}

// ApplyDefaults fills unset fields. The CLI calls it after layering flag
// overrides over the loaded file.
func (c *Config) ApplyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Event defaults
	if len(c.Events) == 0 {
		c.Events = DefaultEvents()
	}

	// Router defaults
	if c.Router.Augment == nil {
		c.Router.Augment = boolPtr(true)
	}
	if c.Router.Reaction == "" {
		c.Router.Reaction = DefaultReaction
	}
	if c.Router.LogDropped == nil {
		c.Router.LogDropped = boolPtr(true)
	}

	// Connection defaults
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PongTimeout == 0 {
		c.Connection.PongTimeout = DefaultPongTimeout
	}
	if c.Connection.BufferSize == 0 {
		c.Connection.BufferSize = DefaultBufferSize
	}
}

func boolPtr(b bool) *bool {
	return &b
}
