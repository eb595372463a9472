package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flocknet/flock/pkg/cryptox"
)

// TokenAdapter adapts the Sessions repository to the feedsdk.TokenStore
// interface for a single host. The access token is sealed before it touches
// disk; the salt is minted per session and stored beside the ciphertext.
//
// Load is deliberately forgiving: a missing row, a corrupt blob, or a seal
// key that no longer opens it all read as "no token", which the session
// layer resolves into Anonymous instead of an error the user can't act on.
type TokenAdapter struct {
	store      Store
	host       string
	passphrase string
	username   string

	logger *slog.Logger
}

func NewTokenAdapter(store Store, host, passphrase string, logger *slog.Logger) *TokenAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenAdapter{
		store:      store,
		host:       host,
		passphrase: passphrase,
		logger:     logger,
	}
}

// SetUsername records the username persisted alongside the next Save.
func (a *TokenAdapter) SetUsername(username string) { a.username = username }

// Username returns the username of the persisted session, if any.
func (a *TokenAdapter) Username() string {
	session, err := a.store.Sessions().Get(context.Background(), a.host)
	if err != nil {
		return ""
	}
	return session.Username
}

func (a *TokenAdapter) Load() (string, bool) {
	session, err := a.store.Sessions().Get(context.Background(), a.host)
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		a.logger.Warn("failed to read persisted session", "host", a.host, "error", err)
		return "", false
	}

	sealer, err := cryptox.NewSealer(a.passphrase, session.Salt)
	if err != nil {
		a.logger.Warn("failed to derive seal key", "host", a.host, "error", err)
		return "", false
	}

	token, err := sealer.Open(session.SealedToken)
	if err != nil {
		a.logger.Warn("persisted token cannot be opened, discarding", "host", a.host, "error", err)
		_ = a.store.Sessions().Delete(context.Background(), a.host)
		return "", false
	}

	a.username = session.Username
	return string(token), true
}

func (a *TokenAdapter) Save(token string) error {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return fmt.Errorf("failed to mint seal salt: %w", err)
	}

	sealer, err := cryptox.NewSealer(a.passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to derive seal key: %w", err)
	}

	sealed, err := sealer.Seal([]byte(token))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	return a.store.Sessions().Put(context.Background(), Session{
		Host:        a.host,
		Username:    a.username,
		SealedToken: sealed,
		Salt:        salt,
	})
}

func (a *TokenAdapter) Clear() error {
	return a.store.Sessions().Delete(context.Background(), a.host)
}
