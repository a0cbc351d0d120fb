// Package clidriver is a thin llmdriver.Driver that shells out to a
// configured CLI executable, grounded on
// internal/attractor/engine/codergen_router.go's exec.CommandContext +
// stdin-prompt invocation pattern. It exists so cmd/act has a runnable
// default Driver without the core depending on any concrete LLM wire
// protocol — spec.md §1 names the LLM driver itself as an external
// collaborator exercised only through internal/llmdriver's interface.
package clidriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/danshapiro/actcore/internal/llmdriver"
)

// Driver invokes Executable with the request serialized to stdin as JSON
// and treats stdout as the response text.
type Driver struct {
	Executable string
	Args       []string
	Timeout    time.Duration
}

// New constructs a Driver. timeout <= 0 defaults to two minutes.
func New(executable string, args []string, timeout time.Duration) *Driver {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Driver{Executable: executable, Args: args, Timeout: timeout}
}

type wireRequest struct {
	SystemPrompt string              `json:"system_prompt"`
	Messages     []llmdriver.Message `json:"messages"`
	ModelHint    string              `json:"model_hint,omitempty"`
}

// Complete shells out to d.Executable, writing the request as JSON on
// stdin and reading the full stdout as the response text. Non-zero exit,
// a context deadline, or an empty executable path are classified as
// llmdriver.ErrUnavailable / llmdriver.ErrTimeout.
func (d *Driver) Complete(ctx context.Context, req llmdriver.Request) (llmdriver.Response, error) {
	if strings.TrimSpace(d.Executable) == "" {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: "no LLM CLI executable configured"}
	}

	payload, err := json.Marshal(wireRequest{SystemPrompt: req.SystemPrompt, Messages: req.Messages, ModelHint: req.ModelHint})
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrInvalid, Message: "failed to encode request", Cause: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.Executable, d.Args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if runCtx.Err() != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrTimeout, Message: "LLM CLI call timed out", Cause: runCtx.Err()}
	}
	if err != nil {
		return llmdriver.Response{}, &llmdriver.DriverError{Kind: llmdriver.ErrUnavailable, Message: fmt.Sprintf("LLM CLI exited with error: %s", strings.TrimSpace(stderr.String())), Cause: err}
	}

	return llmdriver.Response{Text: stdout.String()}, nil
}
