// Package llmprovider implements llmdriver.Driver against the Anthropic
// Messages API and the OpenAI Chat Completions API directly over
// net/http, grounded on internal/llm/providers/anthropic/adapter.go and
// internal/llm/providers/openai/adapter.go's raw-HTTP adapter pattern and
// internal/llm/errors.go's status-code error classification. Trimmed to
// single-turn text completion: Scouts never call tools or stream, so the
// tool-calling, prompt-caching, and streaming machinery those adapters
// carry for the coding-agent's own LLM calls has no home here.
package llmprovider

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// httpError classifies a non-2xx provider response the way
// internal/llm/errors.go's ErrorFromHTTPStatus does: by status code, with
// 408, 429, 500, 502, 503 and 504 treated as retryable and everything else
// (including other 5xx codes) as not.
type httpError struct {
	provider   string
	statusCode int
	message    string
	retryable  bool
	retryAfter *time.Duration
}

func (e *httpError) Error() string {
	return fmt.Sprintf("%s error (status=%d): %s", e.provider, e.statusCode, strings.TrimSpace(e.message))
}

func (e *httpError) Retryable() bool { return e.retryable }

func errorFromStatus(provider string, statusCode int, body string, retryAfter string) *httpError {
	e := &httpError{provider: provider, statusCode: statusCode, message: body}
	switch statusCode {
	case 408, 429:
		e.retryable = true
	case 500, 502, 503, 504:
		e.retryable = true
	default:
		e.retryable = false
	}
	if d := parseRetryAfter(retryAfter); d != nil {
		e.retryAfter = d
	}
	return e
}

func parseRetryAfter(v string) *time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		return &d
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}
