// Package tlsroots builds the trust store used to reach the backend.
//
// The pool starts from the system roots and adds any CA bundle the
// operator configures, so a self-hosted backend with a private CA works
// without touching the system store.
package tlsroots
