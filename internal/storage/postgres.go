package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps entries in the storage_entries table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM storage_entries WHERE key = $1`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	const upsertSQL = `
INSERT INTO storage_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()
`
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, value); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM storage_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
