// Package router consumes raw RTM events, filters them against the
// configured event types, and appends the survivors to the archive sink.
//
// The router is the only component that understands event semantics. It
// decodes each frame into a model.Event, resolves the channel it belongs
// to, optionally augments the payload with human-readable fields, and
// hands the result to the sink. Events without a channel have nowhere to
// be archived and are dropped.
package router

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nestor-bot/nestor/internal/connection"
	"github.com/nestor-bot/nestor/internal/model"
)

// tsLayout is the wall-clock format written into the ts_ field.
const tsLayout = "2006-01-02 15:04:05"

// Sink receives archived events, one per call, keyed by channel name.
type Sink interface {
	Append(channel string, ev model.Event) error
}

// Directory resolves Slack IDs to display names.
type Directory interface {
	ChannelName(ctx context.Context, channelID string) string
	UserName(ctx context.Context, userID string) (string, bool)
}

// Reactor marks a message with an emoji reaction.
type Reactor interface {
	AddReaction(ctx context.Context, name, channelID, timestamp string) error
}

// Config controls filtering and enrichment.
type Config struct {
	// Events lists the event types to archive. Anything else is skipped.
	Events []string

	// Augment adds ts_ and user_ convenience fields to archived events.
	Augment bool

	// React adds Reaction to every archived plain message.
	React    bool
	Reaction string

	// LogDropped logs events that carry no channel instead of silently
	// discarding them.
	LogDropped bool
}

// Stats is a point-in-time snapshot of router counters.
type Stats struct {
	Received  int64
	Archived  int64
	Skipped   int64
	Dropped   int64
	Malformed int64
	Reactions int64
}

// Router filters and archives events from a raw event stream.
type Router struct {
	cfg     Config
	input   <-chan connection.RawEvent
	dir     Directory
	sink    Sink
	reactor Reactor
	logger  *slog.Logger

	types map[string]struct{}

	mu    sync.RWMutex
	stats Stats
}

// New creates a router reading from input until the channel closes or the
// context is canceled. reactor may be nil when cfg.React is false.
func New(cfg Config, input <-chan connection.RawEvent, dir Directory, sink Sink, reactor Reactor, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	types := make(map[string]struct{}, len(cfg.Events))
	for _, t := range cfg.Events {
		types[t] = struct{}{}
	}

	return &Router{
		cfg:     cfg,
		input:   input,
		dir:     dir,
		sink:    sink,
		reactor: reactor,
		logger:  logger,
		types:   types,
	}
}

// Run processes events until the input channel closes or ctx is canceled,
// returning nil in both cases. A sink failure is fatal and returns the
// append error: the archive is the whole point, and writing into a broken
// sink would lose events silently.
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("router started", "event_types", len(r.types), "augment", r.cfg.Augment, "react", r.cfg.React)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("router stopped", "reason", "context canceled")
			return nil
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("router stopped", "reason", "input closed")
				return nil
			}
			if err := r.handle(ctx, raw); err != nil {
				return err
			}
		}
	}
}

// handle archives a single raw event. Only sink errors are returned;
// everything else is counted and logged.
func (r *Router) handle(ctx context.Context, raw connection.RawEvent) error {
	r.mu.Lock()
	r.stats.Received++
	r.mu.Unlock()

	ev, err := model.Decode(raw.Data)
	if err != nil {
		r.logger.Warn("malformed event", "error", err)
		r.mu.Lock()
		r.stats.Malformed++
		r.mu.Unlock()
		return nil
	}

	typ := ev.Type()
	if _, ok := r.types[typ]; !ok {
		r.logger.Debug("skipping event type", "type", typ)
		r.mu.Lock()
		r.stats.Skipped++
		r.mu.Unlock()
		return nil
	}

	channelID := ev.ChannelID()
	if channelID == "" {
		if r.cfg.LogDropped {
			r.logger.Warn("dropping event without channel", "type", typ)
		}
		r.mu.Lock()
		r.stats.Dropped++
		r.mu.Unlock()
		return nil
	}

	channel := r.dir.ChannelName(ctx, channelID)

	if r.cfg.Augment {
		r.augment(ctx, ev)
	}

	if err := r.sink.Append(channel, ev); err != nil {
		r.logger.Error("archive append failed", "channel", channel, "type", typ, "error", err)
		return err
	}

	r.mu.Lock()
	r.stats.Archived++
	r.mu.Unlock()

	r.react(ctx, ev, channelID)
	return nil
}

// augment adds ts_ (wall-clock UTC) and user_ (display name) fields so the
// archive can be read without a Slack client at hand. Failures leave the
// event untouched; the raw ts and user fields are still there.
func (r *Router) augment(ctx context.Context, ev model.Event) {
	if ts, ok := ev.Timestamp(); ok {
		if t, err := model.ParseTS(ts); err == nil {
			ev["ts_"] = t.Format(tsLayout)
		}
	}
	if userID := ev.UserID(); userID != "" {
		if name, ok := r.dir.UserName(ctx, userID); ok {
			ev["user_"] = name
		}
	}
}

// react adds the configured reaction to plain channel messages. Subtyped
// messages (edits, joins, bot chatter) are left alone. Reaction failures
// are logged and ignored since the event is already archived.
func (r *Router) react(ctx context.Context, ev model.Event, channelID string) {
	if !r.cfg.React || r.reactor == nil {
		return
	}
	if ev.Type() != "message" || ev.Subtype() != "" {
		return
	}
	ts, ok := ev.Timestamp()
	if !ok {
		return
	}

	if err := r.reactor.AddReaction(ctx, r.cfg.Reaction, channelID, ts); err != nil {
		r.logger.Warn("reaction failed", "channel", channelID, "ts", ts, "error", err)
		return
	}

	r.mu.Lock()
	r.stats.Reactions++
	r.mu.Unlock()
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
