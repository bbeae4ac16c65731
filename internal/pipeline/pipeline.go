// Package pipeline implements the request-processing order every chat
// completion goes through once it has passed authentication and rate
// limiting: scrub, fingerprint, check caches, invoke a provider, then
// populate caches for next time.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ozanunal0/Prometheus-Gateway/internal/cache"
	"github.com/ozanunal0/Prometheus-Gateway/internal/dlp"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
	"github.com/ozanunal0/Prometheus-Gateway/internal/providers"
	"github.com/ozanunal0/Prometheus-Gateway/internal/security"
	"github.com/ozanunal0/Prometheus-Gateway/internal/semanticcache"
)

// Pipeline holds every stage's dependency. Constructed once at startup
// and shared across requests — every field is either stateless or
// internally concurrency-safe, so Process may run concurrently for any
// number of in-flight requests.
type Pipeline struct {
	scrubber     *dlp.Scrubber
	exactCache   *cache.ExactCache
	semantic     *semanticcache.Cache
	registry     *providers.Registry
	log          *logrus.Logger
}

// New builds a Pipeline.
func New(scrubber *dlp.Scrubber, exactCache *cache.ExactCache, semantic *semanticcache.Cache, registry *providers.Registry, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{scrubber: scrubber, exactCache: exactCache, semantic: semantic, registry: registry, log: log}
}

// Outcome reports how a request was satisfied, for the metrics and
// logging layers built on top of Process.
type Outcome struct {
	Response     *models.ChatResponse
	ExactCacheHit    bool
	SemanticCacheHit bool
}

// Process runs the full pipeline on an already-authenticated,
// already-rate-limited, already-JSON-decoded request and returns its
// response or a propagated error. Callers are expected to have decoded
// the HTTP body into req before calling Process — JSON decoding itself
// happens at the HTTP boundary so a malformed body can be rejected with
// 400 before any pipeline stage runs.
func (p *Pipeline) Process(ctx context.Context, req *models.ChatRequest) (*Outcome, error) {
	// Scrub PII in place. The fingerprint computed below, and the
	// request forwarded to a provider, both see only the scrubbed
	// content — there is no re-validation gap because scrubbing
	// happens directly on the canonical struct, not on a serialized
	// copy of the request body.
	for i := range req.Messages {
		req.Messages[i].Content = p.scrubber.Scrub(req.Messages[i].Content)
	}

	fingerprint, err := security.Fingerprint(req)
	if err != nil {
		return nil, err
	}

	if resp, hit := p.exactCache.Get(ctx, fingerprint); hit {
		return &Outcome{Response: resp, ExactCacheHit: true}, nil
	}

	var semanticHit bool
	if lastText, isUser := req.LastUserMessage(); isUser && lastText != "" {
		if matchFP, found := p.semantic.Search(ctx, lastText); found {
			if resp, hit := p.exactCache.Get(ctx, matchFP); hit {
				return &Outcome{Response: resp, ExactCacheHit: true, SemanticCacheHit: true}, nil
			}
			// semantic hit pointed at an exact-cache entry that has
			// since expired or was never written; fall through to the
			// provider like a full miss.
			semanticHit = false
		}
	}

	adapter, apiKey, err := p.registry.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := adapter.Invoke(ctx, apiKey, req)
	if err != nil {
		return nil, err
	}

	p.populateCaches(ctx, fingerprint, req, resp)

	return &Outcome{Response: resp, SemanticCacheHit: semanticHit}, nil
}

// populateCaches writes both caches after a successful provider call.
// The two writes are order-independent and each swallows its own
// failures (handled inside ExactCache.Put / semanticcache.Cache.Add);
// running them concurrently via errgroup just avoids paying their
// latency sequentially on the request's hot path.
func (p *Pipeline) populateCaches(ctx context.Context, fingerprint string, req *models.ChatRequest, resp *models.ChatResponse) {
	var g errgroup.Group

	g.Go(func() error {
		p.exactCache.Put(ctx, fingerprint, resp)
		return nil
	})

	if lastText, isUser := req.LastUserMessage(); isUser && lastText != "" {
		g.Go(func() error {
			p.semantic.Add(ctx, fingerprint, lastText)
			return nil
		})
	}

	_ = g.Wait() // both goroutines above always return nil; errors are handled internally
}
