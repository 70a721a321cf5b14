// Package token decodes bearer tokens on the client side.
//
// The client never holds the signing key, so decoding reads the JWT
// payload without verifying the signature. The result is only used to
// decide whether a stored token is worth presenting to the backend:
//
//   - Decode extracts the subject and expiry claims
//   - IsExpired compares the expiry (epoch seconds) with a clock reading
//   - Fingerprint gives logs a stable, non-reversible handle on a token
//
// A token that fails to decode must be treated as expired by callers.
package token
