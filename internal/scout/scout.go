// Package scout implements the two read-only LLM analysts (Scout A: the
// codebase map; Scout B: the build/test surface) that run during the Debug
// Loop's SCOUTING state. Both share one runtime shell — file discovery,
// prompt construction, LLM invocation with retry/backoff, JSON extraction,
// and schema validation — and differ only in system prompt and schema.
package scout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danshapiro/actcore/internal/llmdriver"
	"github.com/danshapiro/actcore/internal/scoutfilter"
	"github.com/danshapiro/actcore/internal/scoutschema"
)

// Report is a schema-validated Scout response.
type Report struct {
	Kind    scoutschema.Kind
	Version string
	Body    map[string]any
}

// Config parameterizes a single Scout invocation.
type Config struct {
	Driver    llmdriver.Driver
	RepoRoot  string
	TaskText  string
	MaxFiles  int
	ModelHint string
	Policy    RetryPolicy
	// Sleep defaults to time.Sleep; overridable so tests don't wait on
	// real backoff delays.
	Sleep func(time.Duration)
	// PriorStepLogs is consulted only by Scout B, to describe what has
	// already failed in this task's prior verification attempts.
	PriorStepLogs []string
}

func (c Config) sleep(d time.Duration) {
	if c.Sleep != nil {
		c.Sleep(d)
		return
	}
	time.Sleep(d)
}

// RunScoutA discovers the repo's relevant files and asks the LLM to map
// out the codebase slice relevant to cfg.TaskText.
func RunScoutA(ctx context.Context, cfg Config) (*Report, error) {
	files, err := scoutfilter.Discover(cfg.RepoRoot, cfg.MaxFiles)
	if err != nil {
		return nil, &ScoutError{Kind: KindLLMResponseInvalid, Message: "failed to discover repository files", Cause: err}
	}
	return run(ctx, scoutschema.KindScoutA, scoutASystemPrompt, buildScoutAMessages(cfg.TaskText, files), cfg)
}

// RunScoutB discovers the repo's build/test surface and asks the LLM to
// describe the detected build system, test framework, and (if prior step
// logs are present) failure analysis.
func RunScoutB(ctx context.Context, cfg Config) (*Report, error) {
	files, err := scoutfilter.Discover(cfg.RepoRoot, cfg.MaxFiles)
	if err != nil {
		return nil, &ScoutError{Kind: KindLLMResponseInvalid, Message: "failed to discover repository files", Cause: err}
	}
	return run(ctx, scoutschema.KindScoutB, scoutBSystemPrompt, buildScoutBMessages(cfg.TaskText, files, cfg.PriorStepLogs), cfg)
}

const scoutASystemPrompt = `You are a read-only codebase analyst. Given a task description and a ` +
	`list of repository files, produce a JSON report (schema version "1") describing which files ` +
	`are relevant, risk zones, change boundaries, existing conventions, and prior art. You must not ` +
	`propose or make any edits.`

const scoutBSystemPrompt = `You are a read-only build-and-test analyst. Given a task description, a ` +
	`list of repository files, and any prior verification step logs, produce a JSON report (schema ` +
	`version "1") describing the detected build system, test framework, build/test command lists, ` +
	`failure analysis of prior runs, and environment issues. You must not propose or make any edits.`

func buildScoutAMessages(taskText string, files []string) []llmdriver.Message {
	return []llmdriver.Message{{
		Role:    "user",
		Content: fmt.Sprintf("Task:\n%s\n\nDiscovered files (%d):\n%s", taskText, len(files), joinLines(files)),
	}}
}

func buildScoutBMessages(taskText string, files []string, priorLogs []string) []llmdriver.Message {
	content := fmt.Sprintf("Task:\n%s\n\nDiscovered files (%d):\n%s", taskText, len(files), joinLines(files))
	if len(priorLogs) > 0 {
		content += fmt.Sprintf("\n\nPrior verification step logs:\n%s", joinLines(priorLogs))
	}
	return []llmdriver.Message{{Role: "user", Content: content}}
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// run is the shared retry/backoff/validate shell for both scouts.
func run(ctx context.Context, kind scoutschema.Kind, systemPrompt string, messages []llmdriver.Message, cfg Config) (*Report, error) {
	policy := cfg.Policy
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}

	var lastErr error
	for attempt := 0; attempt < policy.attempts(); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ScoutError{Kind: KindLLMUnavailable, Message: "cancelled before retry", Cause: ctx.Err()}
			default:
			}
			cfg.sleep(policy.DelayForAttempt(attempt - 1))
		}

		report, err := attempt1(ctx, kind, systemPrompt, messages, cfg)
		if err == nil {
			return report, nil
		}
		lastErr = err

		var se *ScoutError
		if errors.As(err, &se) && !se.IsRetryable() {
			return nil, err
		}
	}
	return nil, &RetryExhausted{Attempts: policy.attempts(), LastError: lastErr}
}

func attempt1(ctx context.Context, kind scoutschema.Kind, systemPrompt string, messages []llmdriver.Message, cfg Config) (*Report, error) {
	resp, err := cfg.Driver.Complete(ctx, llmdriver.Request{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		ModelHint:    cfg.ModelHint,
	})
	if err != nil {
		return nil, classifyDriverError(err)
	}

	raw, err := scoutschema.ExtractJSON(resp.Text)
	if err != nil {
		return nil, &ScoutError{Kind: KindLLMResponseInvalid, Message: "could not extract JSON from response", Cause: err}
	}

	body, err := scoutschema.Validate(kind, raw)
	if err != nil {
		return nil, &ScoutError{Kind: KindSchemaValidation, Message: "schema validation failed", Cause: err}
	}

	return &Report{Kind: kind, Version: scoutschema.SchemaVersion, Body: body}, nil
}

func classifyDriverError(err error) error {
	var de *llmdriver.DriverError
	if errors.As(err, &de) {
		switch de.Kind {
		case llmdriver.ErrTimeout:
			return &ScoutError{Kind: KindLLMTimeout, Message: "LLM call timed out", Cause: err}
		case llmdriver.ErrRateLimit:
			return &ScoutError{Kind: KindLLMRateLimit, Message: "LLM rate limited", Cause: err}
		case llmdriver.ErrUnavailable:
			return &ScoutError{Kind: KindLLMUnavailable, Message: "LLM backend unavailable", Cause: err}
		default:
			return &ScoutError{Kind: KindLLMResponseInvalid, Message: "LLM returned an invalid response", Cause: err}
		}
	}
	return &ScoutError{Kind: KindLLMUnavailable, Message: "LLM call failed", Cause: err}
}
