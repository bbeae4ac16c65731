package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

func withAnthropicTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)
	restore := anthropicMessagesURL
	anthropicMessagesURL = upstream.URL
	t.Cleanup(func() { anthropicMessagesURL = restore })
	return upstream
}

func TestAnthropicAdapter_RolesPassThroughAndRealUsage(t *testing.T) {
	var captured anthropicRequest
	withAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":[{"text":"hello back"}],"stop_reason":"end_turn","usage":{"input_tokens":7,"output_tokens":3}}`))
	})

	adapter := NewAnthropicAdapter(0)
	req := &models.ChatRequest{
		Model:    "claude-3-opus",
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	}
	resp, err := adapter.Invoke(context.Background(), "sk-ant", req)
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Choices[0].Message.Content)
	assert.Equal(t, "end_turn", resp.Choices[0].FinishReason)
	assert.Equal(t, 7, resp.Usage.PromptTokens)
	assert.Equal(t, 3, resp.Usage.CompletionTokens)
	assert.Equal(t, 10, resp.Usage.TotalTokens)

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "hi", captured.Messages[0].Content)
}

func TestAnthropicAdapter_DefaultsFinishReasonWhenStopReasonEmpty(t *testing.T) {
	withAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"content":[{"text":"ok"}],"usage":{"input_tokens":1,"output_tokens":1}}`))
	})

	adapter := NewAnthropicAdapter(0)
	req := &models.ChatRequest{
		Model:    "claude-3-opus",
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	}
	resp, err := adapter.Invoke(context.Background(), "sk-ant", req)
	require.NoError(t, err)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
}

func TestAnthropicAdapter_PreservesUpstreamStatusCode(t *testing.T) {
	withAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	})

	adapter := NewAnthropicAdapter(0)
	req := &models.ChatRequest{
		Model:    "claude-3-opus",
		Messages: []models.ChatMessage{{Role: "user", Content: "hi"}},
	}
	_, err := adapter.Invoke(context.Background(), "sk-ant", req)
	require.Error(t, err)
	se, ok := err.(*apierr.StatusError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
