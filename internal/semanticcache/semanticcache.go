// Package semanticcache orchestrates an embedder and a vector store
// behind the add/search contract the request pipeline uses. Add and
// Search degrade silently on failure — the semantic cache is always an
// optimization, never a dependency, of the primary request path. The
// administrative Stats and Clear return their errors to the caller.
package semanticcache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/vectorstore"
)

// Embedder turns text into a vector. Satisfied by *embedding.Embedder;
// declared as an interface here (rather than importing the concrete
// type) so tests can substitute a fixed-vector fake without pulling in
// the real hashing implementation.
type Embedder interface {
	Embed(text string) []float32
}

// VectorStore is the subset of *vectorstore.Store the semantic cache
// needs, declared as an interface so tests can fake Qdrant entirely.
type VectorStore interface {
	Upsert(ctx context.Context, p vectorstore.Point) error
	SearchNearest(ctx context.Context, query []float32) (*vectorstore.Match, error)
	Count(ctx context.Context) (uint64, error)
	Clear(ctx context.Context) error
}

// Cache adds and searches semantic-cache entries.
type Cache struct {
	embedder  Embedder
	store     VectorStore
	threshold float64
	log       *logrus.Logger
}

// New builds a Cache. threshold is the minimum similarity a search
// result must meet to be considered a hit.
func New(embedder Embedder, store VectorStore, threshold float64, log *logrus.Logger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{embedder: embedder, store: store, threshold: threshold, log: log}
}

// Add embeds text and stores it under fingerprint. Failures are logged
// and swallowed.
func (c *Cache) Add(ctx context.Context, fingerprint, text string) {
	if text == "" {
		return
	}
	vec := c.embedder.Embed(text)
	if err := c.store.Upsert(ctx, vectorstore.Point{ID: fingerprint, Embedding: vec, Text: text}); err != nil {
		c.log.WithError(err).WithField("fingerprint", fingerprint).Warn("semantic cache add failed")
	}
}

// Search embeds text and returns the fingerprint of the nearest prior
// entry if its similarity meets the configured threshold. Returns
// found=false on a miss, a below-threshold match, or any backend error.
func (c *Cache) Search(ctx context.Context, text string) (fingerprint string, found bool) {
	if text == "" {
		return "", false
	}

	vec := c.embedder.Embed(text)
	match, err := c.store.SearchNearest(ctx, vec)
	if err != nil {
		c.log.WithError(err).Warn("semantic cache search failed, treating as miss")
		return "", false
	}
	if match == nil {
		return "", false
	}
	if match.Similarity < c.threshold {
		return "", false
	}
	return match.ID, true
}

// Stats reports how many entries are currently stored — a read-only
// administrative convenience, not part of the request-serving path.
type Stats struct {
	PointCount uint64
}

// Stats returns the current entry count.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	count, err := c.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{PointCount: count}, nil
}

// Clear removes every semantic-cache entry. Administrative only.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}
