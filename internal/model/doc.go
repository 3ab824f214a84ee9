// Package model defines the event payload type shared across nestor.
//
// Slack's RTM event schema varies per event type; nestor only ever needs a
// handful of fields (type, channel, user, ts) and passes everything else
// through untouched. Event is therefore a plain map with accessors for the
// fields the router and augmenter care about.
//
// Conventions:
//   - Timestamps: Slack "ts" values, decimal seconds as strings (e.g. "1705328200.000100")
//   - IDs: opaque Slack strings (C… channels, U… users)
package model
