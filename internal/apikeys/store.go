// Package apikeys persists and resolves API key records. The Store
// interface is deliberately small so it can be backed by Postgres in
// production and by an in-memory map in tests, following the swappable-
// storage-behind-a-small-interface pattern used throughout the teacher
// corpus's database layer.
package apikeys

import (
	"context"
	"time"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// Store resolves and persists APIKey records.
type Store interface {
	// GetByHashedKey returns the record matching hashedKey, or
	// (nil, nil) if none exists. Store errors are returned as a
	// non-nil error; callers must treat that as a fail-closed lookup
	// failure, not a "key not found".
	GetByHashedKey(ctx context.Context, hashedKey string) (*models.APIKey, error)

	// Create persists a new key record.
	Create(ctx context.Context, key *models.APIKey) error
}

// NewUUID is overridable in tests; production code always uses the real
// generator in internal/apikeys/id.go.
var NewUUID = newRandomID

func newRecord(owner, hashedKey string) *models.APIKey {
	return &models.APIKey{
		ID:        NewUUID(),
		HashedKey: hashedKey,
		Owner:     owner,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}
