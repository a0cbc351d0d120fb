package verifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStepLogFilename(t *testing.T) {
	got := StepLogFilename(3, "lint")
	want := "step-03-lint.log"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWriteStepLog(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteStepLog(dir, 1, "build", "hello\n")
	if err != nil {
		t.Fatalf("WriteStepLog: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "hello\n" {
		t.Fatalf("got %q", string(b))
	}
}

func TestAppendCombinedLog_AddsNewlineWhenMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := AppendCombinedLog(dir, "first"); err != nil {
		t.Fatalf("AppendCombinedLog: %v", err)
	}
	if _, err := AppendCombinedLog(dir, "second\n"); err != nil {
		t.Fatalf("AppendCombinedLog: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "combined.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "first\nsecond\n" {
		t.Fatalf("got %q", string(b))
	}
}

func TestExtractTail_ShorterThanN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got := ExtractTail(path, 200)
	if got != "a\nb\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractTail_LongerThanN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.log")
	lines := make([]string, 300)
	for i := range lines {
		lines[i] = "line"
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got := ExtractTail(path, 200)
	if len(strings.Split(got, "\n")) != 200 {
		t.Fatalf("expected 200 lines, got %d", len(strings.Split(got, "\n")))
	}
}

func TestExtractTail_MissingFile(t *testing.T) {
	if got := ExtractTail(filepath.Join(t.TempDir(), "nope.log"), 200); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestExtractTail_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "combined.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := ExtractTail(path, 200); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestListArtifactPaths_SortedAndRecursive(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "logs", "b.log"))
	mustWrite(t, filepath.Join(dir, "logs", "a.log"))
	mustWrite(t, filepath.Join(dir, "manifest.json"))

	paths, err := ListArtifactPaths(dir)
	if err != nil {
		t.Fatalf("ListArtifactPaths: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 paths, got %d: %v", len(paths), paths)
	}
	for i := 1; i < len(paths); i++ {
		if paths[i-1] > paths[i] {
			t.Fatalf("paths not sorted: %v", paths)
		}
	}
}

func TestListArtifactPaths_MissingDir(t *testing.T) {
	paths, err := ListArtifactPaths(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("ListArtifactPaths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %v", paths)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
