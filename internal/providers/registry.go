package providers

import (
	"fmt"
	"time"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/config"
)

// Registry resolves a model name to (Adapter, credential) by scanning
// the configured provider list in order: first match wins, exactly as
// the provider-routing file is declared.
type Registry struct {
	providers []config.ProviderConfig
	adapters  map[string]Adapter // keyed by config provider name ("openai", "gemini", "anthropic")
}

// NewRegistry builds a Registry over cfg's provider list, with each
// provider name wired to its adapter. timeout bounds every upstream
// call independent of the caller's own context deadline.
func NewRegistry(cfg *config.ProvidersConfig, timeout time.Duration) *Registry {
	return &Registry{
		providers: cfg.Providers,
		adapters: map[string]Adapter{
			"openai":    NewOpenAIAdapter(timeout),
			"gemini":    NewGeminiAdapter(timeout),
			"anthropic": NewAnthropicAdapter(timeout),
		},
	}
}

// SetAdapter overrides (or adds) the adapter wired to a provider name.
// Production wiring never needs this — NewRegistry already wires the
// three real adapters — but it gives tests a seam to substitute a fake
// adapter under a test-only provider name without reaching into
// Registry's unexported fields.
func (r *Registry) SetAdapter(providerName string, adapter Adapter) {
	r.adapters[providerName] = adapter
}

// Resolve scans the provider list in order and returns the first
// matching provider's adapter and credential. A model with no
// configured provider is a 400, per the gateway's routing contract —
// never a 500. A configured provider whose api_key_env is unset at
// resolution time is likewise a 400, not a startup failure, since
// credential availability can only be known at request time.
func (r *Registry) Resolve(model string) (Adapter, string, error) {
	for _, p := range r.providers {
		if !p.ServesModel(model) {
			continue
		}
		adapter, ok := r.adapters[p.Name]
		if !ok {
			return nil, "", apierr.New(400, fmt.Sprintf("unsupported provider configured for model: %s", model))
		}
		apiKey, ok := p.APIKey()
		if !ok {
			return nil, "", apierr.New(400, fmt.Sprintf("missing credential for provider: %s", p.Name))
		}
		return adapter, apiKey, nil
	}
	return nil, "", apierr.New(400, fmt.Sprintf("No provider found for model: %s", model))
}
