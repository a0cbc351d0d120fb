package clidriver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/danshapiro/actcore/internal/llmdriver"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake CLI script is a POSIX shell script")
	}
	path := filepath.Join(t.TempDir(), "fake-llm-cli")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCompleteEchoesStdoutOnSuccess(t *testing.T) {
	script := writeScript(t, `cat >/dev/null; echo -n "the answer"`)
	d := New(script, nil, 5*time.Second)
	resp, err := d.Complete(context.Background(), llmdriver.Request{SystemPrompt: "sys", Messages: []llmdriver.Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "the answer" {
		t.Fatalf("Text = %q, want %q", resp.Text, "the answer")
	}
}

func TestCompleteWritesRequestJSONToStdin(t *testing.T) {
	script := writeScript(t, `cat`)
	d := New(script, nil, 5*time.Second)
	resp, err := d.Complete(context.Background(), llmdriver.Request{SystemPrompt: "be terse", Messages: []llmdriver.Message{{Role: "user", Content: "hi"}}, ModelHint: "x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	var echoed map[string]any
	if err := json.Unmarshal([]byte(resp.Text), &echoed); err != nil {
		t.Fatalf("stdout was not the echoed stdin JSON: %v (%q)", err, resp.Text)
	}
	if echoed["system_prompt"] != "be terse" {
		t.Errorf("system_prompt = %v, want %q", echoed["system_prompt"], "be terse")
	}
	if echoed["model_hint"] != "x" {
		t.Errorf("model_hint = %v, want %q", echoed["model_hint"], "x")
	}
}

func TestCompleteNonZeroExitIsUnavailable(t *testing.T) {
	script := writeScript(t, `cat >/dev/null; echo "boom" 1>&2; exit 1`)
	d := New(script, nil, 5*time.Second)
	_, err := d.Complete(context.Background(), llmdriver.Request{Messages: []llmdriver.Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatal("expected an error on nonzero exit")
	}
	de, ok := err.(*llmdriver.DriverError)
	if !ok {
		t.Fatalf("expected *llmdriver.DriverError, got %T", err)
	}
	if de.Kind != llmdriver.ErrUnavailable {
		t.Fatalf("Kind = %s, want %s", de.Kind, llmdriver.ErrUnavailable)
	}
}

func TestCompleteEmptyExecutableIsUnavailable(t *testing.T) {
	d := New("", nil, 0)
	_, err := d.Complete(context.Background(), llmdriver.Request{})
	if err == nil {
		t.Fatal("expected an error for an empty executable path")
	}
	de, ok := err.(*llmdriver.DriverError)
	if !ok {
		t.Fatalf("expected *llmdriver.DriverError, got %T", err)
	}
	if de.Kind != llmdriver.ErrUnavailable {
		t.Fatalf("Kind = %s, want %s", de.Kind, llmdriver.ErrUnavailable)
	}
}

func TestCompleteTimesOut(t *testing.T) {
	script := writeScript(t, `sleep 2`)
	d := New(script, nil, 20*time.Millisecond)
	_, err := d.Complete(context.Background(), llmdriver.Request{})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	de, ok := err.(*llmdriver.DriverError)
	if !ok {
		t.Fatalf("expected *llmdriver.DriverError, got %T", err)
	}
	if de.Kind != llmdriver.ErrTimeout {
		t.Fatalf("Kind = %s, want %s", de.Kind, llmdriver.ErrTimeout)
	}
}
