// Package metrics defines the gateway's Prometheus collectors, built
// with the promauto idiom the teacher corpus uses throughout its own
// background-job instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TokenType labels the gateway_tokens_used_total counter.
type TokenType string

const (
	TokenTypePrompt     TokenType = "prompt"
	TokenTypeCompletion TokenType = "completion"
	TokenTypeTotal      TokenType = "total"
)

// Registry bundles every metric the request pipeline emits.
type Registry struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TokensUsedTotal  *prometheus.CounterVec
}

// NewRegistry registers every collector against reg (pass
// prometheus.DefaultRegisterer in production, a fresh
// prometheus.NewRegistry() in tests that want isolation).
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of chat-completion requests, labeled by owner, model, and final HTTP status code.",
		}, []string{"owner", "model", "status_code"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Chat-completion request latency in seconds, labeled by owner and model.",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0, 15.0, 20.0, 30.0},
		}, []string{"owner", "model"}),

		TokensUsedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_tokens_used_total",
			Help: "Total tokens consumed, labeled by owner, model, and token type.",
		}, []string{"owner", "model", "token_type"}),
	}
}

// RecordUsage increments the token counters for one completed request.
func (r *Registry) RecordUsage(owner, model string, prompt, completion, total int) {
	r.TokensUsedTotal.WithLabelValues(owner, model, string(TokenTypePrompt)).Add(float64(prompt))
	r.TokensUsedTotal.WithLabelValues(owner, model, string(TokenTypeCompletion)).Add(float64(completion))
	r.TokensUsedTotal.WithLabelValues(owner, model, string(TokenTypeTotal)).Add(float64(total))
}
