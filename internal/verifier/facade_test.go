package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danshapiro/actcore/internal/artifacts"
	"github.com/danshapiro/actcore/internal/obslog"
)

func verifyConfig(t *testing.T, steps []VerificationStep) Config {
	t.Helper()
	return Config{
		Steps:        steps,
		Image:        "golang:1.22",
		RepoRoot:     t.TempDir(),
		ArtifactRoot: t.TempDir(),
		TimeoutMS:    1000,
	}
}

// S1: a passing pipeline reports StatusPass and persists a manifest.
func TestVerify_Pass(t *testing.T) {
	v := &Verifier{containers: &fakeContainerManager{execResults: []fakeExecResult{
		{exitCode: 0, output: "ok"},
	}}}
	resp := v.Verify(context.Background(), verifyConfig(t, []VerificationStep{{Name: "lint", Command: "lint"}}))

	if resp.Status != StatusPass {
		t.Fatalf("expected PASS, got %s (%s)", resp.Status, resp.ErrorMessage)
	}
	if resp.Manifest == nil || resp.Manifest.Status != "PASS" {
		t.Fatalf("expected a persisted PASS manifest, got %+v", resp.Manifest)
	}
}

// S2: a failing step reports StatusFail, not an infra error.
func TestVerify_Fail(t *testing.T) {
	v := &Verifier{containers: &fakeContainerManager{execResults: []fakeExecResult{
		{exitCode: 1, output: "boom"},
	}}}
	resp := v.Verify(context.Background(), verifyConfig(t, []VerificationStep{{Name: "test", Command: "test"}}))

	if resp.Status != StatusFail {
		t.Fatalf("expected FAIL, got %s", resp.Status)
	}
	if resp.Manifest == nil || resp.Manifest.Status != "FAIL" {
		t.Fatalf("expected a persisted FAIL manifest, got %+v", resp.Manifest)
	}
}

// S4: a container acquisition failure reports INFRA_ERROR with a classified
// error type, and the container is never released (nothing was acquired).
func TestVerify_AcquireFailureIsInfraError(t *testing.T) {
	acquireErr := &ContainerError{ErrorType: ErrDockerUnavailable, Message: "daemon down"}
	fc := &fakeContainerManager{acquireErr: acquireErr}
	v := &Verifier{containers: fc}

	resp := v.Verify(context.Background(), verifyConfig(t, []VerificationStep{{Name: "lint", Command: "lint"}}))

	if resp.Status != StatusInfraError {
		t.Fatalf("expected INFRA_ERROR, got %s", resp.Status)
	}
	if resp.ErrorType != ErrDockerUnavailable {
		t.Fatalf("expected classified error type, got %s", resp.ErrorType)
	}
	if fc.released {
		t.Fatalf("Release should not be called when Acquire never produced a handle")
	}
}

// S4: a genuine exec error mid-pipeline (container.go's non-*exec.ExitError
// branch) reports INFRA_ERROR instead of an ordinary FAIL, and the container
// is still released.
func TestVerify_ExecErrorIsInfraError(t *testing.T) {
	execErr := errors.New("docker exec: lost connection")
	fc := &fakeContainerManager{execResults: []fakeExecResult{{err: execErr}}}
	v := &Verifier{containers: fc}

	resp := v.Verify(context.Background(), verifyConfig(t, []VerificationStep{{Name: "lint", Command: "lint"}}))

	if resp.Status != StatusInfraError {
		t.Fatalf("expected INFRA_ERROR, got %s", resp.Status)
	}
	if resp.ErrorType != ErrUnknown {
		t.Fatalf("expected ErrUnknown classification for a PipelineError, got %s", resp.ErrorType)
	}
	if !fc.released {
		t.Fatalf("expected container to be released after a pipeline error")
	}
	if resp.Manifest == nil || resp.Manifest.Status != "INFRA_ERROR" {
		t.Fatalf("expected a persisted INFRA_ERROR manifest, got %+v", resp.Manifest)
	}
}

// Invariant: persistManifest logs a write failure instead of discarding it,
// and still leaves the caller free to report the run's real status.
func TestPersistManifest_LogsWriteFailureInsteadOfDiscarding(t *testing.T) {
	var buf strings.Builder
	logger := obslog.New(&buf, "verifier", obslog.LevelDebug)
	v := (&Verifier{}).WithLogger(logger)

	runDir := &artifacts.RunDir{RunID: artifacts.RunID("run-test"), Dir: "/nonexistent/not/writable/path"}
	v.persistManifest(runDir, artifacts.Manifest{RunID: "run-test"})

	out := buf.String()
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "failed to persist manifest") {
		t.Fatalf("expected a logged warning about the manifest write failure, got %q", out)
	}
}

// The happy path never logs a warning.
func TestPersistManifest_NoLogOnSuccess(t *testing.T) {
	var buf strings.Builder
	logger := obslog.New(&buf, "verifier", obslog.LevelDebug)
	v := (&Verifier{}).WithLogger(logger)

	runDir, err := artifacts.AllocateRun(t.TempDir())
	if err != nil {
		t.Fatalf("AllocateRun: %v", err)
	}
	v.persistManifest(runDir, artifacts.Manifest{RunID: string(runDir.RunID)})

	if strings.Contains(buf.String(), "[WARN]") {
		t.Fatalf("did not expect a warning on successful persist, got %q", buf.String())
	}
}
