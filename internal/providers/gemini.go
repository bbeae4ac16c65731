package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ozanunal0/Prometheus-Gateway/internal/apierr"
	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// geminiGenerateContentURLFmt is a var, not a const, so tests can point
// it at an httptest server.
var geminiGenerateContentURLFmt = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

const geminiSafetyMessage = "The response was blocked or empty due to safety settings."

// GeminiAdapter remaps the canonical message roles to Gemini's
// user/model vocabulary and reconstructs usage/finish-reason fields
// Gemini's API does not report the same way OpenAI's does.
type GeminiAdapter struct {
	httpClient *http.Client
}

func NewGeminiAdapter(timeout time.Duration) *GeminiAdapter {
	return &GeminiAdapter{httpClient: &http.Client{Timeout: timeout}}
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// remapRole translates a canonical role to Gemini's role vocabulary.
// Gemini has no dedicated system role; system messages are folded into
// a user turn, matching the gateway's documented routing behavior.
func remapRole(role string) string {
	switch role {
	case "user":
		return "user"
	case "assistant":
		return "model"
	case "system":
		return "user"
	default:
		return "user"
	}
}

func (a *GeminiAdapter) Invoke(ctx context.Context, apiKey string, req *models.ChatRequest) (*models.ChatResponse, error) {
	maxTokens := 1000
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	contents := make([]geminiContent, 0, len(req.Messages))
	var allText []string
	for _, m := range req.Messages {
		contents = append(contents, geminiContent{
			Role:  remapRole(m.Role),
			Parts: []geminiPart{{Text: m.Content}},
		})
		allText = append(allText, m.Content)
	}
	promptTokens := wordCount(strings.Join(allText, " "))

	body, err := json.Marshal(geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling gemini request: %w", err)
	}

	url := fmt.Sprintf(geminiGenerateContentURLFmt, req.Model, apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, fmt.Sprintf("gemini request failed: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gemini response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var parsed interface{}
		if json.Unmarshal(respBody, &parsed) != nil {
			parsed = string(respBody)
		}
		return nil, apierr.Upstream(resp.StatusCode, parsed)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parsing gemini response: %w", err)
	}

	responseText := geminiSafetyMessage
	if len(parsed.Candidates) > 0 && len(parsed.Candidates[0].Content.Parts) > 0 {
		if t := parsed.Candidates[0].Content.Parts[0].Text; t != "" {
			responseText = t
		}
	}
	completionTokens := wordCount(responseText)

	return &models.ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", nowUnix()),
		Object:  "chat.completion",
		Created: nowUnix(),
		Model:   req.Model,
		Choices: []models.ChatChoice{
			{
				Index:        0,
				Message:      models.ChatMessage{Role: "assistant", Content: responseText},
				FinishReason: "stop",
			},
		},
		Usage: models.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
