// Package auth resolves the Slack bot token from configuration and the
// environment.
package auth

import (
	"errors"
	"os"
	"strings"
)

// Environment variables consulted when the config carries no token.
// EnvToken is the historical name and is kept for existing deployments.
const (
	EnvSlackToken = "SLACK_TOKEN"
	EnvToken      = "TOKEN"
)

// ErrNoToken is returned when no token is found in the config or the
// environment.
var ErrNoToken = errors.New("no slack token: set api.token, $SLACK_TOKEN, or $TOKEN")

// ResolveToken returns the bot token, preferring the configured value over
// the SLACK_TOKEN and TOKEN environment variables, in that order.
func ResolveToken(configured string) (string, error) {
	for _, candidate := range []string{
		configured,
		os.Getenv(EnvSlackToken),
		os.Getenv(EnvToken),
	} {
		if token := strings.TrimSpace(candidate); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// HasKnownPrefix reports whether the token looks like a Slack token. All
// Slack token families ("xoxb-", "xoxp-", "xapp-", …) share short letter
// prefixes; anything else is almost certainly a paste error. This is a
// syntactic check only, auth.test decides for real.
func HasKnownPrefix(token string) bool {
	return strings.HasPrefix(token, "xox") || strings.HasPrefix(token, "xapp-")
}

// Redact returns a fingerprint of the token safe to log: the family prefix
// and the last four characters.
func Redact(token string) string {
	if len(token) < 12 {
		return "****"
	}
	prefix := token[:4]
	if i := strings.Index(token, "-"); i > 0 && i < 8 {
		prefix = token[:i]
	}
	return prefix + "-****" + token[len(token)-4:]
}
