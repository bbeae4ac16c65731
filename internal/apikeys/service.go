package apikeys

import (
	"context"
	"fmt"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
	"github.com/ozanunal0/Prometheus-Gateway/internal/security"
)

// Service wraps a Store with the admin-facing create-key operation.
type Service struct {
	store Store
}

// NewService wraps store with key-creation logic.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateKey generates a new plaintext API key for owner, persists only
// its hash, and returns the plaintext. The caller (the admin tool) is
// responsible for printing it exactly once, out of band.
func (s *Service) CreateKey(ctx context.Context, owner string) (plaintext string, record *models.APIKey, err error) {
	plaintext, err = security.GenerateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	record = newRecord(owner, security.HashAPIKey(plaintext))

	if err := s.store.Create(ctx, record); err != nil {
		return "", nil, fmt.Errorf("persisting key: %w", err)
	}
	return plaintext, record, nil
}
