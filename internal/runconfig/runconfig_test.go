package runconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "act.yaml", `
image: golang:1.25
steps:
  - name: build
    command: go build ./...
  - name: test
    command: go test ./...
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StepTimeoutMS != 300_000 {
		t.Errorf("StepTimeoutMS = %d, want 300000 default", cfg.StepTimeoutMS)
	}
	if cfg.Retention.MaxRuns != 20 || cfg.Retention.MaxAgeDays != 14 {
		t.Errorf("Retention = %+v, want defaults MaxRuns=20 MaxAgeDays=14", cfg.Retention)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.BackoffFactor != 2.0 {
		t.Errorf("Retry = %+v, want defaults MaxAttempts=3 BackoffFactor=2.0", cfg.Retry)
	}
	if cfg.Loop.ConsecutiveFailureThreshold != 3 || cfg.Loop.TotalVerifyLoopThreshold != 12 {
		t.Errorf("Loop = %+v, want defaults 3/12", cfg.Loop)
	}
	if len(cfg.Steps) != 2 {
		t.Fatalf("Steps = %v, want 2 entries", cfg.Steps)
	}
}

func TestLoadJSONVariant(t *testing.T) {
	path := writeTemp(t, "act.json", `{
		"image": "golang:1.25",
		"steps": [{"name": "build", "command": "go build ./..."}]
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Image != "golang:1.25" {
		t.Errorf("Image = %q, want golang:1.25", cfg.Image)
	}
}

func TestLoadRejectsUnknownTopLevelKeyInYAML(t *testing.T) {
	path := writeTemp(t, "act.yaml", `
image: golang:1.25
steps:
  - name: build
    command: go build ./...
bogus_key: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown top-level key")
	}
}

func TestLoadRejectsUnknownFieldInJSON(t *testing.T) {
	path := writeTemp(t, "act.json", `{
		"image": "golang:1.25",
		"steps": [{"name": "build", "command": "go build ./..."}],
		"bogus_key": true
	}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestLoadRejectsEmptySteps(t *testing.T) {
	path := writeTemp(t, "act.yaml", `
image: golang:1.25
steps: []
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error for zero steps")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
}
