package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate checks that values are usable. Call after ApplyDefaults; zero
// durations fail here. The token and archive directory are not checked:
// both may arrive from outside the file (environment, positional argument)
// and are validated by their consumers.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	for i, event := range c.Events {
		if strings.TrimSpace(event) == "" {
			return fmt.Errorf("events[%d] is empty", i)
		}
	}

	if c.Router.React && c.Router.Reaction == "" {
		return errors.New("router.reaction is required when router.react is set")
	}

	if c.Connection.ReconnectBaseDelay <= 0 {
		return errors.New("connection.reconnect_base_delay must be positive")
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectBaseDelay {
		return fmt.Errorf("connection.reconnect_max_delay (%v) cannot be below reconnect_base_delay (%v)",
			c.Connection.ReconnectMaxDelay, c.Connection.ReconnectBaseDelay)
	}
	if c.Connection.PingInterval <= 0 {
		return errors.New("connection.ping_interval must be positive")
	}
	if c.Connection.PongTimeout <= c.Connection.PingInterval {
		return fmt.Errorf("connection.pong_timeout (%v) must exceed ping_interval (%v)",
			c.Connection.PongTimeout, c.Connection.PingInterval)
	}
	if c.Connection.BufferSize < 1 {
		return errors.New("connection.buffer_size must be >= 1")
	}

	if c.Health.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Health.Addr); err != nil {
			return fmt.Errorf("health.addr: %w", err)
		}
	}

	return nil
}
