package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Event is a single RTM event exactly as delivered by Slack: a JSON object
// whose schema depends on the event type. Apart from the accessor fields
// below the payload is opaque and round-trips unchanged.
type Event map[string]any

// Decode parses raw event bytes into an Event. Anything that is not a JSON
// object is an error, including null, which Unmarshal would otherwise accept
// into a nil map.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, errors.New("null event")
	}
	return ev, nil
}

// Encode serializes the event as a single compact JSON line (no trailing
// newline). encoding/json emits map keys in sorted order, so output is
// deterministic for a given payload.
func (ev Event) Encode() ([]byte, error) {
	return json.Marshal(ev)
}

// Type returns the event type ("message", "reaction_added", …) or "".
func (ev Event) Type() string {
	return ev.stringField("type")
}

// Subtype returns the message subtype ("bot_message", "channel_join", …) or
// "" for plain events.
func (ev Event) Subtype() string {
	return ev.stringField("subtype")
}

// ChannelID returns the channel this event belongs to, or "" if the payload
// carries none. Checked in order: "channel", "channel_id", "item.channel".
// The last covers pin and reaction events, which nest the channel under the
// item they refer to. Events like channel_rename deliver "channel" as a
// conversation object; its "id" field is used then.
func (ev Event) ChannelID() string {
	for _, key := range []string{"channel", "channel_id"} {
		switch v := ev[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if id, ok := v["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	if item, ok := ev["item"].(map[string]any); ok {
		if id, ok := item["channel"].(string); ok {
			return id
		}
	}
	return ""
}

// UserID returns the user that generated this event, or "". Checked in
// order: "user", "user_id".
func (ev Event) UserID() string {
	for _, key := range []string{"user", "user_id"} {
		if id := ev.stringField(key); id != "" {
			return id
		}
	}
	return ""
}

// Timestamp returns the event's "ts" value as a string. Slack sends ts as a
// decimal string; a bare JSON number is tolerated and reformatted.
func (ev Event) Timestamp() (string, bool) {
	switch v := ev["ts"].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func (ev Event) stringField(key string) string {
	s, _ := ev[key].(string)
	return s
}

// ParseTS converts a Slack ts value ("1355517523.000005") to a UTC Time.
func ParseTS(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ts %q: %w", ts, err)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}
