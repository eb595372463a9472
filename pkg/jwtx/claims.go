// Package jwtx inspects access tokens on the client side.
//
// Decoding here is deliberately unverified: the client only reads the expiry
// so it can refresh before issuing a doomed call. It never trusts the token
// for authorization decisions, the server remains authoritative.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed reports a token that could not be decoded at all. Callers
	// treat this exactly like an expired token (refresh or logout), never as
	// a crash.
	ErrMalformed = errors.New("jwtx: malformed token")
)

// Claims are the access-token claims the client cares about. Anything else
// the server embeds is ignored.
type Claims struct {
	jwt.RegisteredClaims

	// Username for the authenticated user, when the server includes it.
	Username string `json:"username,omitempty"`
}

// Decode parses the token's claims without verifying the signature.
// Pure and synchronous, no I/O.
func Decode(raw string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, ErrMalformed
	}

	return claims, nil
}

// Expired reports whether the claims are expired at the given instant.
// Equality counts as expired (exp <= now), no clock-skew grace period.
// A token without an exp claim never expires client-side; the server will
// still reject it if it disagrees.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// ExpiresIn returns the remaining lifetime at the given instant, or zero if
// already expired or no expiry is set.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	if c.ExpiresAt == nil || c.Expired(now) {
		return 0
	}
	return c.ExpiresAt.Time.Sub(now)
}
