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

// OpenAI is a llmdriver.Driver backed by the Chat Completions API,
// grounded on internal/llm/providers/openai/adapter.go's raw-HTTP request
// construction, simplified from its Responses-API tool-calling shape to
// plain single-turn chat since a Scout never calls tools.
type OpenAI struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewOpenAIFromEnv constructs an OpenAI driver from OPENAI_API_KEY and
// optionally OPENAI_BASE_URL / OPENAI_MODEL. ok is false when no API key
// is configured.
func NewOpenAIFromEnv() (driver *OpenAI, ok bool) {
	key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if key == "" {
		return nil, false
	}
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")), "/")
	if base == "" {
		base = "https://api.openai.com"
	}
	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{APIKey: key, BaseURL: base, Model: model, Client: &http.Client{}}, true
}

func (o *OpenAI) Complete(ctx context.Context, req llmdriver.Request) (llmdriver.Response, error) {
	model := req.ModelHint
	if model == "" {
		model = o.Model
	}

	messages := make([]map[string]any, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.SystemPrompt})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != "user" && role != "assistant" && role != "system" {
			role = "user"
		}
		messages = append(messages, map[string]any{"role": role, "content": m.Content})
	}

	body := map[string]any{
		"model":    model,
		"messages": messages,
	}

	b, err := json.Marshal(body)
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: "failed to encode OpenAI request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: "failed to build OpenAI request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrTimeout, Message: "OpenAI call timed out", Cause: ctx.Err()}
		}
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: "OpenAI request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := errorFromStatus("openai", resp.StatusCode, string(raw), resp.Header.Get("Retry-After"))
		if resp.StatusCode == 429 {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrRateLimit, Message: httpErr.Error(), Cause: httpErr}
		}
		if httpErr.Retryable() {
			return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: httpErr.Error(), Cause: httpErr}
		}
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: httpErr.Error(), Cause: httpErr}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: "malformed OpenAI response body", Cause: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: fmt.Sprintf("OpenAI response carried no choices: %s", string(raw))}
	}
	return llmdriver.Response{Text: parsed.Choices[0].Message.Content}, nil
}
