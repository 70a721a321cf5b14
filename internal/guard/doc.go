// Package guard gates views on session state.
//
// A Guard turns a session state into one of three outcomes: render the
// view, show a placeholder while the session is settling, or redirect to
// the other entry point. Decide is pure; Middleware and Check adapt it to
// net/http handlers and CLI commands.
package guard
