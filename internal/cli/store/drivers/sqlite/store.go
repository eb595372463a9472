package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flocknet/flock/internal/cli/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Several CLI invocations may race on the same state file.
	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Sessions() store.Sessions { return &sessionsRepo{db: s.db} }

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) Get(ctx context.Context, host string) (store.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT host, username, sealed_token, salt, updated_at
		FROM sessions
		WHERE host = ?`, host)

	var s store.Session
	var updatedAt string
	if err := row.Scan(&s.Host, &s.Username, &s.SealedToken, &s.Salt, &updatedAt); err != nil {
		return store.Session{}, mapNotFound(err)
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return store.Session{}, err
	}
	s.UpdatedAt = t

	return s, nil
}

func (r *sessionsRepo) Put(ctx context.Context, s store.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (host, username, sealed_token, salt, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (host) DO UPDATE SET
			username = excluded.username,
			sealed_token = excluded.sealed_token,
			salt = excluded.salt,
			updated_at = excluded.updated_at`,
		s.Host, s.Username, s.SealedToken, s.Salt,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (r *sessionsRepo) Delete(ctx context.Context, host string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE host = ?`, host)
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
