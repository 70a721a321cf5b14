// Package adaptive seals small secrets at rest.
//
// It picks an AEAD based on the platform:
//
//   - AES-256-GCM where the Go runtime uses hardware AES (amd64, arm64)
//   - ChaCha20-Poly1305 everywhere else
//
// Sealed values carry a one-byte algorithm tag and a random nonce, so a
// value sealed on one machine opens on another with the same key.
// DeriveKey stretches an operator-supplied passphrase into a 32-byte key
// with HKDF-SHA256.
//
// Usage:
//
//	key := adaptive.DeriveKey(passphrase, "lexdesk/token-store")
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, aad)
//	plaintext, err := c.Open(sealed, aad)
package adaptive
