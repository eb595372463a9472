package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/flocknet/flock/pkg/jwtx"
)

// mintToken builds a signed token. The signature key is irrelevant because
// the client decodes without verifying, but a structurally valid JWT is
// needed for the parser to accept it.
func mintToken(t *testing.T, claims jwtx.Claims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	raw := mintToken(t, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Username: "alice",
	})

	claims, err := jwtx.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.Subject)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, now.Add(time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"not-a-token",
		"only.two",
		"!!!.###.$$$",
	} {
		_, err := jwtx.Decode(raw)
		require.ErrorIs(t, err, jwtx.ErrMalformed, "input %q", raw)
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()

	cases := []struct {
		name    string
		exp     *jwt.NumericDate
		expired bool
	}{
		{"future", jwt.NewNumericDate(now.Add(time.Second)), false},
		{"past", jwt.NewNumericDate(now.Add(-time.Second)), true},
		// exp == now counts as expired, no grace period.
		{"boundary", jwt.NewNumericDate(now), true},
		{"no exp claim", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: tc.exp}}
			require.Equal(t, tc.expired, c.Expired(now))
		})
	}
}

func TestExpiredRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	raw := mintToken(t, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		},
	})

	claims, err := jwtx.Decode(raw)
	require.NoError(t, err)
	require.True(t, claims.Expired(now))
	require.Zero(t, claims.ExpiresIn(now))
}

func TestExpiresIn(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	c := jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(90 * time.Second)),
	}}

	require.Equal(t, 90*time.Second, c.ExpiresIn(now))
}
