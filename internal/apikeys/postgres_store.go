package apikeys

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// PostgresStore persists API keys in a Postgres table:
//
//	api_keys(id PK, hashed_key UNIQUE INDEX, owner, is_active BOOL, created_at)
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the api_keys table if it does not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS api_keys (
	id TEXT PRIMARY KEY,
	hashed_key TEXT NOT NULL,
	owner TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS api_keys_hashed_key_idx ON api_keys (hashed_key);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating api_keys schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByHashedKey(ctx context.Context, hashedKey string) (*models.APIKey, error) {
	const q = `SELECT id, hashed_key, owner, is_active, created_at FROM api_keys WHERE hashed_key = $1`

	var key models.APIKey
	err := s.pool.QueryRow(ctx, q, hashedKey).Scan(
		&key.ID, &key.HashedKey, &key.Owner, &key.IsActive, &key.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key by hash: %w", err)
	}
	return &key, nil
}

func (s *PostgresStore) Create(ctx context.Context, key *models.APIKey) error {
	const q = `INSERT INTO api_keys (id, hashed_key, owner, is_active, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q, key.ID, key.HashedKey, key.Owner, key.IsActive, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}
	return nil
}
