// Package providers resolves a chat model name to the upstream adapter
// that serves it and invokes that adapter.
package providers

import (
	"context"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// Adapter is the single capability every upstream provider implements:
// take a canonical request, return a canonical response (or an error
// carrying the upstream's original status/body).
type Adapter interface {
	// Invoke sends req to the upstream provider and translates its
	// response into the canonical ChatResponse shape. apiKey is the
	// credential resolved for this request's matched provider config.
	Invoke(ctx context.Context, apiKey string, req *models.ChatRequest) (*models.ChatResponse, error)
}
