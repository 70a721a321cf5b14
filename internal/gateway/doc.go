// Package gateway carries every request lexdesk sends to the backend.
//
// Gateway is an http.RoundTripper. For each request it reads the token
// fresh from the token store, attaches it as a bearer credential, stamps a
// request ID and reports 401 responses to an AuthorizationObserver. It
// never retries and never re-authenticates; the caller always receives the
// response or error it would have received without the gateway.
//
// Backend translates the auth endpoints (login, register, profile, password
// reset) between their wire shapes and the domain types, mapping statuses
// onto domain errors.
package gateway
