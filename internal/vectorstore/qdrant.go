// Package vectorstore wraps the Qdrant gRPC client with the single
// collection the semantic cache needs: point ID == cache fingerprint,
// vector == embedding, payload == {text, metadata}.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const collectionName = "semantic_cache"

// Point is one semantic-cache entry.
type Point struct {
	ID        string
	Embedding []float32
	Text      string
}

// Match is one nearest-neighbor search result. Similarity is Qdrant's
// own returned score for a collection configured with cosine distance,
// which for that metric IS the cosine similarity directly (unlike the
// Chroma client this module's caching scheme was originally grounded
// on, which returns a distance that the caller subtracts from 1).
type Match struct {
	ID         string
	Similarity float64
	Text       string
}

// Store talks to a single Qdrant collection over gRPC.
type Store struct {
	client *qdrant.Client
	dim    uint64
}

// New connects to Qdrant at host:port. It does not create the
// collection — call EnsureCollection once at startup.
func New(host string, port int) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", host, port, err)
	}
	return &Store{client: client, dim: 384}, nil
}

// EnsureCollection creates the semantic_cache collection (cosine
// distance, dim-sized vectors) if it does not already exist. Creation
// is idempotent: when CollectionExists reports the collection, it is
// left as is; any error from CreateCollection is returned.
func (s *Store) EnsureCollection(ctx context.Context, dim uint64) error {
	s.dim = dim

	exists, err := s.client.CollectionExists(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("checking qdrant collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating qdrant collection: %w", err)
	}
	return nil
}

// Upsert inserts or overwrites a point. Errors are returned to the
// caller (internal/semanticcache swallows them — vector-store writes
// are an auxiliary path).
func (s *Store) Upsert(ctx context.Context, p Point) error {
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"text": p.Text,
					"metadata": map[string]any{
						"cache_key":   p.ID,
						"text_length": len(p.Text),
					},
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// SearchNearest returns the single nearest neighbor to query, if any.
func (s *Store) SearchNearest(ctx context.Context, query []float32) (*Match, error) {
	limit := uint64(1)
	withPayload := qdrant.NewWithPayload(true)

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    withPayload,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	top := results[0]
	text := ""
	if v, ok := top.Payload["text"]; ok {
		text = v.GetStringValue()
	}

	return &Match{
		ID:         pointIDString(top.Id),
		Similarity: float64(top.Score),
		Text:       text,
	}, nil
}

// Count returns the number of points currently stored.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	exact := true
	resp, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collectionName,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count: %w", err)
	}
	return resp, nil
}

// Clear deletes and recreates the collection, removing every point.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("dropping qdrant collection: %w", err)
	}
	return s.EnsureCollection(ctx, s.dim)
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}
