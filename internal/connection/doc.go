// Package connection maintains the RTM websocket session.
//
// The connection manager:
//   - Requests a fresh single-use websocket URL before every dial
//   - Keeps one connection alive, reconnecting with exponential backoff
//   - Drives the RTM keepalive protocol (ping/pong)
//   - Forwards every other event to the router
package connection
