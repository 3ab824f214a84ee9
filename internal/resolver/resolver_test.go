package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nestor-bot/nestor/internal/api"
)

// stubAPI serves canned channel and user lookups and counts calls.
type stubAPI struct {
	mu           sync.Mutex
	channels     map[string]*api.Conversation
	users        map[string]*api.User
	channelCalls int
	userCalls    int
	failChannels bool
	failUsers    bool
}

func (s *stubAPI) GetConversationInfo(ctx context.Context, channelID string) (*api.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelCalls++
	if s.failChannels {
		return nil, errors.New("channel_not_found")
	}
	conv, ok := s.channels[channelID]
	if !ok {
		return nil, errors.New("channel_not_found")
	}
	return conv, nil
}

func (s *stubAPI) GetUserInfo(ctx context.Context, userID string) (*api.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userCalls++
	if s.failUsers {
		return nil, errors.New("user_not_found")
	}
	user, ok := s.users[userID]
	if !ok {
		return nil, errors.New("user_not_found")
	}
	return user, nil
}

func (s *stubAPI) counts() (channels, users int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelCalls, s.userCalls
}

func TestChannelName(t *testing.T) {
	t.Run("resolves and caches", func(t *testing.T) {
		stub := &stubAPI{channels: map[string]*api.Conversation{
			"C024BE91L": {ID: "C024BE91L", Name: "fun"},
		}}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		if got := d.ChannelName(ctx, "C024BE91L"); got != "fun" {
			t.Errorf("ChannelName = %q, want %q", got, "fun")
		}
		if got := d.ChannelName(ctx, "C024BE91L"); got != "fun" {
			t.Errorf("ChannelName = %q, want %q", got, "fun")
		}

		if calls, _ := stub.counts(); calls != 1 {
			t.Errorf("API calls = %d, want 1 (second hit should be cached)", calls)
		}
	})

	t.Run("failure falls back to raw id and is cached", func(t *testing.T) {
		stub := &stubAPI{failChannels: true}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		if got := d.ChannelName(ctx, "C0MISSING"); got != "C0MISSING" {
			t.Errorf("ChannelName = %q, want raw id", got)
		}
		d.ChannelName(ctx, "C0MISSING")

		if calls, _ := stub.counts(); calls != 1 {
			t.Errorf("API calls = %d, want 1 (failure should be cached too)", calls)
		}
		if fallbacks := d.Stats().Fallbacks; fallbacks != 1 {
			t.Errorf("Stats().Fallbacks = %d, want 1", fallbacks)
		}
	})

	t.Run("unnamed conversation uses raw id", func(t *testing.T) {
		stub := &stubAPI{channels: map[string]*api.Conversation{
			"D024BE91L": {ID: "D024BE91L", IsIM: true},
		}}
		d := NewDirectory(stub, nil)

		if got := d.ChannelName(context.Background(), "D024BE91L"); got != "D024BE91L" {
			t.Errorf("ChannelName = %q, want raw id for a DM", got)
		}
	})

	t.Run("name collision keeps logs separate", func(t *testing.T) {
		stub := &stubAPI{channels: map[string]*api.Conversation{
			"C0000001": {ID: "C0000001", Name: "general"},
			"C0000002": {ID: "C0000002", Name: "general"},
		}}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		if got := d.ChannelName(ctx, "C0000001"); got != "general" {
			t.Errorf("first channel = %q, want %q", got, "general")
		}
		if got := d.ChannelName(ctx, "C0000002"); got != "C0000002" {
			t.Errorf("second channel = %q, want raw id on collision", got)
		}

		// Both answers stay stable
		if got := d.ChannelName(ctx, "C0000001"); got != "general" {
			t.Errorf("first channel after collision = %q, want %q", got, "general")
		}
		if got := d.ChannelName(ctx, "C0000002"); got != "C0000002" {
			t.Errorf("second channel after collision = %q, want raw id", got)
		}
	})

	t.Run("filename collision keeps logs separate", func(t *testing.T) {
		// Names that differ as strings but sanitize to the same file must
		// not share an archive.
		stub := &stubAPI{channels: map[string]*api.Conversation{
			"C0000001": {ID: "C0000001", Name: "general"},
			"C0000002": {ID: "C0000002", Name: "ｇｅｎｅｒａｌ"}, // folds to "general"
			"C0000003": {ID: "C0000003", Name: "a/b"},
			"C0000004": {ID: "C0000004", Name: "a_b"}, // sanitizes like "a/b"
		}}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		if got := d.ChannelName(ctx, "C0000001"); got != "general" {
			t.Errorf("first channel = %q, want %q", got, "general")
		}
		if got := d.ChannelName(ctx, "C0000002"); got != "C0000002" {
			t.Errorf("folding channel = %q, want raw id", got)
		}

		if got := d.ChannelName(ctx, "C0000003"); got != "a/b" {
			t.Errorf("separator channel = %q, want %q", got, "a/b")
		}
		if got := d.ChannelName(ctx, "C0000004"); got != "C0000004" {
			t.Errorf("underscore channel = %q, want raw id", got)
		}

		if got := d.ChannelName(ctx, "C0000002"); got != "C0000002" {
			t.Errorf("folding channel after caching = %q, want raw id", got)
		}
	})
}

func TestUserName(t *testing.T) {
	t.Run("prefers display name", func(t *testing.T) {
		stub := &stubAPI{users: map[string]*api.User{
			"U023BECGF": {ID: "U023BECGF", Name: "bobby", Profile: api.UserProfile{DisplayName: "Bobby T"}},
		}}
		d := NewDirectory(stub, nil)

		name, ok := d.UserName(context.Background(), "U023BECGF")
		if !ok {
			t.Fatal("UserName returned ok=false")
		}
		if name != "Bobby T" {
			t.Errorf("UserName = %q, want %q", name, "Bobby T")
		}
	})

	t.Run("falls back to username", func(t *testing.T) {
		stub := &stubAPI{users: map[string]*api.User{
			"U023BECGF": {ID: "U023BECGF", Name: "bobby"},
		}}
		d := NewDirectory(stub, nil)

		name, ok := d.UserName(context.Background(), "U023BECGF")
		if !ok || name != "bobby" {
			t.Errorf("UserName = %q, %v; want %q, true", name, ok, "bobby")
		}
	})

	t.Run("caches successes", func(t *testing.T) {
		stub := &stubAPI{users: map[string]*api.User{
			"U023BECGF": {ID: "U023BECGF", Name: "bobby"},
		}}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		d.UserName(ctx, "U023BECGF")
		d.UserName(ctx, "U023BECGF")

		if _, calls := stub.counts(); calls != 1 {
			t.Errorf("API calls = %d, want 1", calls)
		}
	})

	t.Run("does not cache failures", func(t *testing.T) {
		stub := &stubAPI{failUsers: true}
		d := NewDirectory(stub, nil)
		ctx := context.Background()

		if _, ok := d.UserName(ctx, "U0MISSING"); ok {
			t.Error("UserName ok = true for a failed lookup")
		}
		d.UserName(ctx, "U0MISSING")

		if _, calls := stub.counts(); calls != 2 {
			t.Errorf("API calls = %d, want 2 (failures retry)", calls)
		}
	})
}

func TestStats(t *testing.T) {
	stub := &stubAPI{
		channels: map[string]*api.Conversation{
			"C0000001": {ID: "C0000001", Name: "general"},
		},
		users: map[string]*api.User{
			"U0000001": {ID: "U0000001", Name: "bobby"},
		},
	}
	d := NewDirectory(stub, nil)
	ctx := context.Background()

	d.ChannelName(ctx, "C0000001")
	d.ChannelName(ctx, "C0000002") // fails, cached as fallback
	d.UserName(ctx, "U0000001")

	stats := d.Stats()
	if stats.ChannelsCached != 2 {
		t.Errorf("ChannelsCached = %d, want 2", stats.ChannelsCached)
	}
	if stats.UsersCached != 1 {
		t.Errorf("UsersCached = %d, want 1", stats.UsersCached)
	}
	if stats.Lookups != 3 {
		t.Errorf("Lookups = %d, want 3", stats.Lookups)
	}
	if stats.Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", stats.Fallbacks)
	}
}
