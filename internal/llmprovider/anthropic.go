package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/danshapiro/actcore/internal/llmdriver"
)

// Anthropic is a llmdriver.Driver backed by the Messages API, grounded on
// internal/llm/providers/anthropic/adapter.go's request construction and
// response parsing (tool-calling and prompt-caching fields dropped; a
// Scout only ever wants one text reply).
type Anthropic struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewAnthropicFromEnv constructs an Anthropic driver from ANTHROPIC_API_KEY
// and optionally ANTHROPIC_BASE_URL / ANTHROPIC_MODEL. ok is false when no
// API key is configured.
func NewAnthropicFromEnv() (driver *Anthropic, ok bool) {
	key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if key == "" {
		return nil, false
	}
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")), "/")
	if base == "" {
		base = "https://api.anthropic.com"
	}
	model := strings.TrimSpace(os.Getenv("ANTHROPIC_MODEL"))
	if model == "" {
		model = "claude-3-5-sonnet-latest"
	}
	return &Anthropic{APIKey: key, BaseURL: base, Model: model, Client: &http.Client{}}, true
}

func (a *Anthropic) Complete(ctx context.Context, req llmdriver.Request) (llmdriver.Response, error) {
	model := req.ModelHint
	if model == "" {
		model = a.Model
	}

	messages := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, map[string]any{
			"role":    role,
			"content": m.Content,
		})
	}

	body := map[string]any{
		"model":      model,
		"max_tokens": 4096,
		"messages":   messages,
	}
	if req.SystemPrompt != "" {
		body["system"] = req.SystemPrompt
	}

	b, err := json.Marshal(body)
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: "failed to encode Anthropic request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/messages", bytes.NewReader(b))
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: "failed to build Anthropic request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrTimeout, Message: "Anthropic call timed out", Cause: ctx.Err()}
		}
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: "Anthropic request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := errorFromStatus("anthropic", resp.StatusCode, string(raw), resp.Header.Get("Retry-After"))
		if resp.StatusCode == 429 {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrRateLimit, Message: httpErr.Error(), Cause: httpErr}
		}
		if httpErr.Retryable() {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: httpErr.Error(), Cause: httpErr}
		}
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: httpErr.Error(), Cause: httpErr}
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: "malformed Anthropic response body", Cause: err}
	}

	var text strings.Builder
	for _, part := range parsed.Content {
		if part.Type == "text" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: fmt.Sprintf("Anthropic response carried no text content: %s", string(raw))}
	}
	return llmdriver.Response{Text: text.String()}, nil
}
