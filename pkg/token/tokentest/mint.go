// Package tokentest mints bearer tokens for tests.
package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningKey is the HS256 key used by Mint. Clients never verify it.
var SigningKey = []byte("lexdesk-test-signing-key")

// Mint returns an HS256 JWT for subject expiring at exp.
func Mint(tb testing.TB, subject string, exp time.Time) string {
	tb.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(SigningKey)
	if err != nil {
		tb.Fatalf("mint token: %v", err)
	}
	return signed
}

// MintClaims signs arbitrary claims, for malformed-claim cases.
func MintClaims(tb testing.TB, claims jwt.MapClaims) string {
	tb.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(SigningKey)
	if err != nil {
		tb.Fatalf("mint token: %v", err)
	}
	return signed
}
