package artifacts

import (
	"os"
	"reflect"
	"testing"
)

func TestManifest_WriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := Manifest{
		RunID:          "run_20260314_092653_ab12cd",
		TimestampStart: "2026-03-14T09:26:53Z",
		TimestampEnd:   "2026-03-14T09:27:10Z",
		CommitSHA:      "deadbeef",
		Status:         StatusPass,
		CommandsExecuted: []CommandResult{
			{Name: "lint", Command: "true", ExitCode: 0, DurationMS: 12},
			{Name: "test", Command: "true", ExitCode: 0, DurationMS: 340},
		},
		Platform: PlatformInfo{OS: "linux", Arch: "amd64", ContainerImage: "alpine"},
	}

	path, err := WriteManifest(dir, m)
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if !reflect.DeepEqual(*got, m) {
		t.Fatalf("round-trip mismatch:\n got: %+v\nwant: %+v", *got, m)
	}
}

func TestReadManifest_MissingKeyFails(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/manifest.json"
	if err := writeRaw(path, `{"run_id": "x"}`); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}

	if _, err := ReadManifest(path); err == nil {
		t.Fatalf("expected error for manifest missing required keys")
	}
}

func TestReadManifest_MissingFileFails(t *testing.T) {
	if _, err := ReadManifest("/nonexistent/manifest.json"); err == nil {
		t.Fatalf("expected error for missing manifest file")
	}
}

func TestReadManifest_MalformedJSONFails(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/manifest.json"
	if err := writeRaw(path, `{not json`); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}
	if _, err := ReadManifest(path); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
