package pipeline

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/cache"
	"github.com/ozanunal0/Prometheus-Gateway/internal/config"
	"github.com/ozanunal0/Prometheus-Gateway/internal/dlp"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
	"github.com/ozanunal0/Prometheus-Gateway/internal/providers"
	"github.com/ozanunal0/Prometheus-Gateway/internal/semanticcache"
	"github.com/ozanunal0/Prometheus-Gateway/internal/vectorstore"
)

// noopVectorStore never finds a match; used where the test only cares
// about exact-cache behavior.
type noopVectorStore struct{}

func (noopVectorStore) Upsert(context.Context, vectorstore.Point) error { return nil }
func (noopVectorStore) SearchNearest(context.Context, []float32) (*vectorstore.Match, error) {
	return nil, nil
}
func (noopVectorStore) Count(context.Context) (uint64, error) { return 0, nil }
func (noopVectorStore) Clear(context.Context) error            { return nil }

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(string) []float32 { return []float32{1, 0, 0} }

func noopSemanticCache() *semanticcache.Cache {
	return semanticcache.New(fixedEmbedder{}, noopVectorStore{}, 0.95, nil)
}

// stubAdapter counts invocations so tests can assert the provider was
// (or was not) called on a cache hit.
type stubAdapter struct {
	calls int
	resp  *models.ChatResponse
	err   error
}

func (s *stubAdapter) Invoke(_ context.Context, _ string, _ *models.ChatRequest) (*models.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestExactCache(t *testing.T) *cache.ExactCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rc := cache.NewRedisClientFromExisting(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return cache.NewExactCache(rc, 0, nil)
}

func newTestPipelineWithAdapter(t *testing.T, adapter providers.Adapter) (*Pipeline, *cache.ExactCache) {
	t.Setenv("STUB_KEY", "sk-stub")
	exact := newTestExactCache(t)

	reg := providers.NewRegistry(&config.ProvidersConfig{
		Providers: []config.ProviderConfig{{Name: "stub", APIKeyEnv: "STUB_KEY", Models: []string{"stub-model"}}},
	}, 0)
	// swap in the stub adapter under the "stub" provider name the test
	// config above resolves to.
	reg.SetAdapter("stub", adapter)

	p := New(dlp.New(nil), exact, noopSemanticCache(), reg, nil)
	return p, exact
}

func TestPipeline_ExactCacheHit_SkipsProvider(t *testing.T) {
	adapter := &stubAdapter{resp: &models.ChatResponse{ID: "chatcmpl-1", Usage: models.Usage{TotalTokens: 5}}}
	p, _ := newTestPipelineWithAdapter(t, adapter)

	req := &models.ChatRequest{Model: "stub-model", Messages: []models.ChatMessage{{Role: "user", Content: "hello"}}}

	out1, err := p.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.calls)
	assert.False(t, out1.ExactCacheHit)

	out2, err := p.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.calls, "provider must not be invoked again on an exact cache hit")
	assert.True(t, out2.ExactCacheHit)
	assert.Equal(t, out1.Response, out2.Response)
}

func TestPipeline_PropagatesProviderError(t *testing.T) {
	adapter := &stubAdapter{err: apierr.Upstream(503, "upstream down")}
	p, _ := newTestPipelineWithAdapter(t, adapter)

	req := &models.ChatRequest{Model: "stub-model", Messages: []models.ChatMessage{{Role: "user", Content: "hello"}}}
	_, err := p.Process(context.Background(), req)
	require.Error(t, err)

	se, ok := err.(*apierr.StatusError)
	require.True(t, ok)
	assert.Equal(t, 503, se.Code)
}
