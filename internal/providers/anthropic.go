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

// anthropicMessagesURL is a var, not a const, so tests can point it at
// an httptest server.
var anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
const anthropicAPIVersion = "2023-06-01"

// AnthropicAdapter passes message roles straight through unchanged
// (Anthropic accepts "user"/"assistant"/"system" natively) and reports
// real token usage from the upstream response rather than estimating.
type AnthropicAdapter struct {
	httpClient *http.Client
}

func NewAnthropicAdapter(timeout time.Duration) *AnthropicAdapter {
	return &AnthropicAdapter{httpClient: &http.Client{Timeout: timeout}}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *AnthropicAdapter) Invoke(ctx context.Context, apiKey string, req *models.ChatRequest) (*models.ChatResponse, error) {
	maxTokens := 4096
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    messages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building anthropic request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, fmt.Sprintf("anthropic request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading anthropic response: %w", err)
	}

	// preserve the upstream status code verbatim, unlike a generic
	// re-raised exception that would lose it.
	if resp.StatusCode >= 300 {
		var parsed interface{}
		if json.Unmarshal(respBody, &parsed) != nil {
			parsed = string(respBody)
		}
		return nil, apierr.Upstream(resp.StatusCode, parsed)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parsing anthropic response: %w", err)
	}

	responseText := ""
	if len(parsed.Content) > 0 {
		responseText = parsed.Content[0].Text
	}

	finishReason := parsed.StopReason
	if finishReason == "" {
		finishReason = "stop"
	}

	return &models.ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", nowUnix()),
		Object:  "chat.completion",
		Created: nowUnix(),
		Model:   req.Model,
		Choices: []models.ChatChoice{
			{
				Index:        0,
				Message:      models.ChatMessage{Role: "assistant", Content: responseText},
				FinishReason: finishReason,
			},
		},
		Usage: models.Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
