// internal/store/sqlite.go
//
// SQLite-backed Store implementation over the kv table
// (owner, key, value, UNIQUE(owner, key)).

package store

import (
	"context"
	"database/sql"
	"errors"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite constructs a Store backed by the kv table.
func NewSQLite(db *sql.DB) Store {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) Get(ctx context.Context, owner, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE owner=? AND key=?`, owner, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, owner, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv (owner, key, value) VALUES (?,?,?)
        ON CONFLICT(owner, key) DO UPDATE SET value=excluded.value`,
		owner, key, value,
	)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, owner, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE owner=? AND key=?`, owner, key)
	return err
}
