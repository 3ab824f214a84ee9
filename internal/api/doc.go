// Package api provides the Slack Web API client used by nestor.
//
// Endpoint: https://slack.com/api/<method> (overridable for tests). All
// calls are POSTs with form-encoded arguments and a bearer token, per Slack
// convention; every response carries an {"ok":bool,"error":string} envelope
// on top of the method-specific payload.
//
// Methods used: auth.test, rtm.connect, conversations.info, users.info,
// reactions.add
package api
