package llmprovider

import "github.com/danshapiro/actcore/internal/llmdriver"

// FromEnv picks a Driver from environment credentials: ANTHROPIC_API_KEY
// first, then OPENAI_API_KEY. ok is false when neither is set, even if
// ACT_LLM_BASE_URL (which precheck also accepts) is set, matching internal/llm.NewFromEnv's "first registered provider wins"
// rule reduced to the two providers this package implements.
func FromEnv() (driver llmdriver.Driver, ok bool) {
	if a, found := NewAnthropicFromEnv(); found {
		return a, true
	}
	if o, found := NewOpenAIFromEnv(); found {
		return o, true
	}
	return nil, false
}
