package apikeys

import (
	"context"
	"sync"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// MemoryStore is a concurrency-safe in-memory Store, used in tests and
// when no Postgres DSN is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*models.APIKey
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.APIKey)}
}

func (s *MemoryStore) GetByHashedKey(_ context.Context, hashedKey string) (*models.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.byID {
		if k.HashedKey == hashedKey {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Create(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *key
	s.byID[key.ID] = &cp
	return nil
}

// Put inserts or overwrites a record directly, bypassing Create — used
// by tests that want to seed fixtures without generating real keys.
func (s *MemoryStore) Put(key *models.APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *key
	s.byID[key.ID] = &cp
}
