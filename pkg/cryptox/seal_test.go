package cryptox_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flocknet/flock/pkg/cryptox"
)

func newSealer(t *testing.T, passphrase string) *cryptox.Sealer {
	t.Helper()

	salt, err := cryptox.NewSalt()
	require.NoError(t, err)

	s, err := cryptox.NewSealer(passphrase, salt)
	require.NoError(t, err)
	return s
}

func TestSealOpenRoundTrip(t *testing.T) {
	t.Parallel()

	s := newSealer(t, "hunter2")

	sealed, err := s.Seal([]byte("eyJhbGciOiJIUzI1NiJ9.access.token"))
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "access")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "eyJhbGciOiJIUzI1NiJ9.access.token", string(opened))
}

func TestSealIsNonDeterministic(t *testing.T) {
	t.Parallel()

	s := newSealer(t, "hunter2")

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	// Fresh nonce per seal.
	require.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	t.Parallel()

	s := newSealer(t, "hunter2")

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	require.ErrorIs(t, err, cryptox.ErrSealOpen)
}

func TestOpenRejectsWrongPassphrase(t *testing.T) {
	t.Parallel()

	salt, err := cryptox.NewSalt()
	require.NoError(t, err)

	a, err := cryptox.NewSealer("right", salt)
	require.NoError(t, err)
	b, err := cryptox.NewSealer("wrong", salt)
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.ErrorIs(t, err, cryptox.ErrSealOpen)
}

func TestOpenRejectsShortInput(t *testing.T) {
	t.Parallel()

	s := newSealer(t, "hunter2")
	_, err := s.Open([]byte{0x01, 0x02})
	require.ErrorIs(t, err, cryptox.ErrSealOpen)
}

func TestNewSealerValidation(t *testing.T) {
	t.Parallel()

	salt, err := cryptox.NewSalt()
	require.NoError(t, err)

	_, err = cryptox.NewSealer("", salt)
	require.Error(t, err)

	_, err = cryptox.NewSealer("pass", []byte("short"))
	require.Error(t, err)
}
