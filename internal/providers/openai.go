package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// openAIChatCompletionsURL is a var, not a const, so tests can point it
// at an httptest server.
var openAIChatCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIAdapter is a pure pass-through: OpenAI's own response is already
// in the canonical shape, so there is no translation step beyond
// forwarding the request body and decoding the upstream body into
// ChatResponse (fields outside the canonical shape are dropped).
type OpenAIAdapter struct {
	httpClient *http.Client
}

func NewOpenAIAdapter(timeout time.Duration) *OpenAIAdapter {
	return &OpenAIAdapter{httpClient: &http.Client{Timeout: timeout}}
}

func (a *OpenAIAdapter) Invoke(ctx context.Context, apiKey string, req *models.ChatRequest) (*models.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatCompletionsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building openai request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, fmt.Sprintf("openai request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading openai response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var parsed interface{}
		if json.Unmarshal(respBody, &parsed) != nil {
			parsed = string(respBody)
		}
		return nil, apierr.Upstream(resp.StatusCode, parsed)
	}

	var chatResp models.ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing openai response: %w", err)
	}
	return &chatResp, nil
}
