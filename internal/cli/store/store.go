package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("store: not found")
)

// Store is the client state database. Concrete drivers (sqlite) implement
// this. Today it holds one repository; it is an interface so tests can swap
// the driver without touching the app wiring.
type Store interface {
	Sessions() Sessions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Session is one persisted sign-in, keyed by server host. The access token
// is sealed at rest; the refresh credential never passes through here, it
// lives in the HTTP cookie jar for the lifetime of the process and in the
// server's cookie on the wire.
type Session struct {
	Host        string
	Username    string
	SealedToken []byte
	Salt        []byte
	UpdatedAt   time.Time
}

type Sessions interface {
	// Get returns the session for a host, or ErrNotFound.
	Get(ctx context.Context, host string) (Session, error)

	// Put inserts or replaces the session for s.Host and bumps updated_at.
	Put(ctx context.Context, s Session) error

	// Delete removes the session for a host. Deleting a host that has no
	// session is not an error; logout must stay idempotent across processes.
	Delete(ctx context.Context, host string) error
}
