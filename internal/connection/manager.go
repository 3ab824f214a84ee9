package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nestor-bot/nestor/internal/api"
)

// Dialer obtains fresh websocket URLs. *api.Client satisfies it.
type Dialer interface {
	RTMConnect(ctx context.Context) (*api.RTMConnectResponse, error)
}

// Manager maintains the RTM session and hands events to the router.
type Manager interface {
	// Start dials the first connection. A failure here is fatal; once
	// connected, the manager reconnects on its own until stopped.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the connection and closes Events().
	Stop(ctx context.Context) error

	// Events returns the channel of raw events for the router. Keepalive
	// pongs and session frames (hello, goodbye) are filtered out.
	Events() <-chan RawEvent

	// Stats returns current connection statistics.
	Stats() ManagerStats
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Connected  bool
	Reconnects int64
	Forwarded  int64
	Pongs      int64
}

// manager implements the Manager interface.
type manager struct {
	cfg    ManagerConfig
	dialer Dialer
	logger *slog.Logger

	// Output channel
	events chan RawEvent

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	client Client

	connected  atomic.Bool
	reconnects atomic.Int64
	forwarded  atomic.Int64
	pongs      atomic.Int64
}

// NewManager creates a new connection manager.
func NewManager(cfg ManagerConfig, dialer Dialer, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		cfg:    cfg,
		dialer: dialer,
		logger: logger,
		events: make(chan RawEvent, cfg.BufferSize),
	}
}

// Start dials the RTM endpoint and begins forwarding events.
func (m *manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	cli, err := m.dial(m.ctx)
	if err != nil {
		return fmt.Errorf("connect rtm: %w", err)
	}

	m.wg.Add(1)
	go m.run(cli)

	return nil
}

// Stop gracefully shuts down.
func (m *manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")

	if m.cancel != nil {
		m.cancel()
	}

	// Wait for the run loop with timeout
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, forcing close")
	}

	m.mu.Lock()
	if m.client != nil {
		m.client.Close()
	}
	m.mu.Unlock()
	m.connected.Store(false)

	close(m.events)

	m.logger.Info("connection manager stopped")
	return nil
}

// Events returns the output channel for the router.
func (m *manager) Events() <-chan RawEvent {
	return m.events
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	return ManagerStats{
		Connected:  m.connected.Load(),
		Reconnects: m.reconnects.Load(),
		Forwarded:  m.forwarded.Load(),
		Pongs:      m.pongs.Load(),
	}
}

// dial requests a fresh websocket URL and connects to it.
func (m *manager) dial(ctx context.Context) (Client, error) {
	resp, err := m.dialer.RTMConnect(ctx)
	if err != nil {
		return nil, err
	}

	cli := NewClient(ClientConfig{
		URL:          resp.URL,
		PingInterval: m.cfg.PingInterval,
		PongTimeout:  m.cfg.PongTimeout,
		WriteTimeout: 5 * time.Second,
		BufferSize:   m.cfg.BufferSize,
	}, m.logger)

	if err := cli.Connect(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.client = cli
	m.mu.Unlock()
	m.connected.Store(true)

	m.logger.Info("rtm connected",
		"team", resp.Team.Name,
		"self", resp.Self.Name,
	)

	return cli, nil
}

// run forwards events from the active connection, replacing it whenever it
// fails or the server says goodbye.
func (m *manager) run(cli Client) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-cli.Errors():
			m.logger.Warn("rtm connection lost", "error", err)
			cli.Close()

			next, ok := m.reconnect()
			if !ok {
				return
			}
			cli = next

		case ev, ok := <-cli.Events():
			if !ok {
				return
			}

			var env envelope
			if err := json.Unmarshal(ev.Data, &env); err == nil {
				switch env.Type {
				case "pong":
					m.pongs.Add(1)
					continue
				case "hello":
					m.logger.Debug("rtm session established")
					continue
				case "goodbye":
					// Server is about to close the socket; rotate now
					m.logger.Info("server sent goodbye, rotating connection")
					cli.Close()

					next, ok := m.reconnect()
					if !ok {
						return
					}
					cli = next
					continue
				}
			}

			select {
			case m.events <- ev:
				m.forwarded.Add(1)
			case <-m.ctx.Done():
				return
			}
		}
	}
}

// reconnect redials with exponential backoff until it succeeds or the
// manager is stopped.
func (m *manager) reconnect() (Client, bool) {
	m.connected.Store(false)

	wait := m.cfg.ReconnectBaseDelay
	maxWait := m.cfg.ReconnectMaxDelay

	for attempt := 1; ; attempt++ {
		select {
		case <-m.ctx.Done():
			return nil, false
		case <-time.After(wait):
		}

		m.logger.Info("attempting reconnection", "attempt", attempt)

		cli, err := m.dial(m.ctx)
		if err != nil {
			m.logger.Warn("reconnection failed",
				"attempt", attempt,
				"error", err,
			)

			// Exponential backoff
			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
			continue
		}

		m.reconnects.Add(1)
		m.logger.Info("reconnected", "attempts", attempt)
		return cli, true
	}
}
