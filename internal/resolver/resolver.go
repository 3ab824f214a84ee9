// Package resolver maps Slack ids to display names, caching lookups for
// the lifetime of the process.
package resolver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nestor-bot/nestor/internal/api"
	"github.com/nestor-bot/nestor/internal/sink"
)

// API is the slice of the Web API the directory needs. *api.Client
// satisfies it.
type API interface {
	GetConversationInfo(ctx context.Context, channelID string) (*api.Conversation, error)
	GetUserInfo(ctx context.Context, userID string) (*api.User, error)
}

// Directory resolves channel and user ids to names.
//
// Channel answers are cached even when the lookup fails: the raw id is a
// perfectly good archive name, and a channel the bot cannot describe today
// will not become describable by asking again on every event. User lookups
// cache successes only, so a transient failure is retried on the next
// event that mentions the user.
type Directory struct {
	client API
	logger *slog.Logger

	mu       sync.Mutex
	channels map[string]string // channel id → archive name
	claimed  map[string]string // archive filename → channel id that owns it
	users    map[string]string // user id → display name

	lookups   atomic.Int64
	fallbacks atomic.Int64
}

// Stats provides statistics about the directory caches.
type Stats struct {
	ChannelsCached int
	UsersCached    int
	Lookups        int64
	Fallbacks      int64
}

// NewDirectory creates a new directory backed by the given client.
func NewDirectory(client API, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}

	return &Directory{
		client:   client,
		logger:   logger,
		channels: make(map[string]string),
		claimed:  make(map[string]string),
		users:    make(map[string]string),
	}
}

// ChannelName returns the name to archive the channel's events under.
// Each id costs at most one API call per process lifetime.
func (d *Directory) ChannelName(ctx context.Context, channelID string) string {
	d.mu.Lock()
	if name, ok := d.channels[channelID]; ok {
		d.mu.Unlock()
		return name
	}
	d.mu.Unlock()

	d.lookups.Add(1)

	name := channelID
	conv, err := d.client.GetConversationInfo(ctx, channelID)
	switch {
	case err != nil:
		d.fallbacks.Add(1)
		d.logger.Warn("channel lookup failed, archiving under raw id",
			"channel", channelID,
			"error", err,
		)
	case conv.Name != "":
		name = conv.Name
	default:
		// DMs carry no name
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Distinct channels can collide on the archive file: names unique as
	// strings need not stay unique once sanitized ("a/b" and "a_b", ascii
	// and fullwidth forms). Claims are therefore on the filename. The
	// first id keeps its name; later ids fall back to themselves so their
	// logs stay separate.
	file := sink.Filename(name)
	if owner, taken := d.claimed[file]; taken && owner != channelID {
		d.logger.Warn("archive file already claimed, archiving under raw id",
			"channel", channelID,
			"name", name,
			"owner", owner,
		)
		name = channelID
		file = sink.Filename(name)
	}

	d.channels[channelID] = name
	d.claimed[file] = channelID
	return name
}

// UserName resolves a user id to a display name. The second return is
// false when the lookup fails.
func (d *Directory) UserName(ctx context.Context, userID string) (string, bool) {
	d.mu.Lock()
	if name, ok := d.users[userID]; ok {
		d.mu.Unlock()
		return name, true
	}
	d.mu.Unlock()

	d.lookups.Add(1)

	user, err := d.client.GetUserInfo(ctx, userID)
	if err != nil {
		d.fallbacks.Add(1)
		d.logger.Warn("user lookup failed",
			"user", userID,
			"error", err,
		)
		return "", false
	}

	name := user.Profile.DisplayName
	if name == "" {
		name = user.Name
	}

	d.mu.Lock()
	d.users[userID] = name
	d.mu.Unlock()

	return name, true
}

// Stats returns current cache statistics.
func (d *Directory) Stats() Stats {
	d.mu.Lock()
	channels := len(d.channels)
	users := len(d.users)
	d.mu.Unlock()

	return Stats{
		ChannelsCached: channels,
		UsersCached:    users,
		Lookups:        d.lookups.Load(),
		Fallbacks:      d.fallbacks.Load(),
	}
}
