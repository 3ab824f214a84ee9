package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no traffic)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// RawEvent wraps one RTM frame with its receive timestamp.
type RawEvent struct {
	Data       []byte    // Raw frame bytes from the websocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ping is the RTM application-level keepalive frame. The server answers
// with {"type":"pong","reply_to":id}.
type ping struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// envelope carries the one field the manager peeks at before forwarding.
type envelope struct {
	Type string `json:"type"`
}

// ClientConfig configures a websocket client.
type ClientConfig struct {
	URL          string        // Single-use websocket URL from rtm.connect
	PingInterval time.Duration // How often to send the keepalive ping
	PongTimeout  time.Duration // Max time without traffic before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Event channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 15 * time.Second,
		PongTimeout:  40 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1024,
	}
}

// ManagerConfig configures the connection manager.
type ManagerConfig struct {
	ReconnectBaseDelay time.Duration // Base wait time for reconnection
	ReconnectMaxDelay  time.Duration // Max wait time for reconnection
	PingInterval       time.Duration // Keepalive ping interval
	PongTimeout        time.Duration // Staleness threshold
	BufferSize         int           // Buffer size for the output event channel
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseDelay: 1 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		PingInterval:       15 * time.Second,
		PongTimeout:        40 * time.Second,
		BufferSize:         1024,
	}
}
