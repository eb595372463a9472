// Package cryptox seals the persisted access token at rest.
//
// The client state database lives in the user's home directory; sealing the
// token slot means a copied database file is useless without the passphrase.
// This is damage limitation for the short-lived access token, not a vault:
// the refresh credential never touches disk on the client at all.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// Argon2id parameters, sized for an interactive CLI (one derivation per
	// process start).
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	keyLength    = 32 // AES-256

	saltLength = 16
)

var ErrSealOpen = errors.New("cryptox: cannot open sealed value")

// Sealer encrypts and decrypts small values with a key derived from a
// passphrase. The zero value is unusable; construct with NewSealer.
type Sealer struct {
	key []byte
}

// NewSealer derives an AES-256 key from the passphrase and salt using
// Argon2id. The salt is stored alongside the sealed data (it's not secret,
// it only prevents key reuse across installs).
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("cryptox: empty passphrase")
	}
	if len(salt) != saltLength {
		return nil, fmt.Errorf("cryptox: salt must be %d bytes, got %d", saltLength, len(salt))
	}

	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keyLength)
	return &Sealer{key: key}, nil
}

// NewSalt returns a fresh random salt for NewSealer.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate salt: %w", err)
	}
	return salt, nil
}

// Seal encrypts plaintext with AES-256-GCM.
// Output format: [nonce][ciphertext][auth tag].
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate nonce: %w", err)
	}

	// gcm.Seal appends ciphertext and auth tag after the nonce.
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal. Tampered or foreign data yields
// ErrSealOpen.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, ErrSealOpen
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealOpen
	}

	return plaintext, nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to create GCM: %w", err)
	}

	return gcm, nil
}
