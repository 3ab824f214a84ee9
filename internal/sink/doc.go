// Package sink appends events to per-channel log files.
//
// One file per channel, one JSON line per event. Writes are unbuffered and
// append-only: every event is handed to the OS before the next one is
// consumed, so a crash loses at most the event in flight.
package sink
