// Package web serves the lexdesk loopback web client.
//
// One process holds one session, shared by every page the local user
// opens. Pages are gated by the route guard: while the session is still
// settling they render a loading placeholder, and a page the current
// session may not see redirects to the matching entry point.
package web
