// Package token decodes bearer tokens on the client side.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token cannot be decoded into claims.
var ErrMalformedToken = errors.New("token: malformed")

// Claims are the token fields the client relies on.
type Claims struct {
	// Subject identifies the user (the backend uses the e-mail address).
	Subject string
	// ExpiresAt is the expiry in epoch seconds.
	ExpiresAt int64
}

// payload accepts the registered claims plus the uid alias some backends
// use instead of sub.
type payload struct {
	UID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode extracts the claims from raw without verifying its signature.
// A token without an expiry or without a subject is malformed.
func Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	var p payload
	if _, _, err := parser.ParseUnverified(raw, &p); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if p.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}

	subject := p.Subject
	if subject == "" {
		subject = p.UID
	}
	if subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}

	return Claims{
		Subject:   subject,
		ExpiresAt: p.ExpiresAt.Unix(),
	}, nil
}

// IsExpired reports whether claims have expired at now.
// A token expiring exactly at now is already expired.
func IsExpired(c Claims, now time.Time) bool {
	return c.ExpiresAt <= now.Unix()
}

// Usable decodes raw and reports whether it is present, well formed and
// unexpired at now. It is the fail-closed check used at bootstrap.
func Usable(raw string, now time.Time) (Claims, bool) {
	c, err := Decode(raw)
	if err != nil {
		return Claims{}, false
	}
	if IsExpired(c, now) {
		return c, false
	}
	return c, true
}
