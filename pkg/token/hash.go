package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLength is the number of hex characters kept by Fingerprint.
const FingerprintLength = 12

// Hash computes the hex-encoded SHA-256 hash of a token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short prefix of Hash, suitable for log correlation.
// The empty token has the empty fingerprint.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return Hash(token)[:FingerprintLength]
}
