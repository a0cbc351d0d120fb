package scoutschema

import (
	"errors"
	"testing"
)

func validScoutABody() string {
	return `{
		"version": "1",
		"relevant_files": [{"path": "main.go", "relevance": "high", "reason": "entrypoint"}],
		"risk_zones": ["internal/verifier"],
		"change_boundaries": ["internal/debugloop"],
		"conventions": ["table-driven tests"],
		"prior_art": ["internal/artifacts/manifest.go"]
	}`
}

func TestValidateScoutA(t *testing.T) {
	body, err := Validate(KindScoutA, []byte(validScoutABody()))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if body["version"] != "1" {
		t.Fatalf("expected version 1, got %v", body["version"])
	}
}

func TestValidateRejectsWrongVersion(t *testing.T) {
	raw := `{"version": "2", "relevant_files": [], "risk_zones": [], "change_boundaries": [], "conventions": [], "prior_art": []}`
	_, err := Validate(KindScoutA, []byte(raw))
	if err == nil {
		t.Fatal("expected a version error, got nil")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	raw := `{"version": "1", "relevant_files": []}`
	if _, err := Validate(KindScoutA, []byte(raw)); err == nil {
		t.Fatal("expected schema validation to fail on missing required fields")
	}
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	if _, err := Validate(KindScoutA, []byte("not json")); err == nil {
		t.Fatal("expected a JSON decode error")
	}
}

func TestExtractJSONFromProseWrapping(t *testing.T) {
	text := "Here is my analysis:\n```json\n{\"a\": 1, \"b\": {\"c\": 2}}\n```\nLet me know if you need more."
	got, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	want := `{"a": 1, "b": {"c": 2}}`
	if string(got) != want {
		t.Fatalf("ExtractJSON = %q, want %q", got, want)
	}
}

func TestExtractJSONIgnoresBracesInsideStrings(t *testing.T) {
	text := `prefix {"note": "contains a } brace"} suffix`
	got, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	want := `{"note": "contains a } brace"}`
	if string(got) != want {
		t.Fatalf("ExtractJSON = %q, want %q", got, want)
	}
}

func TestExtractJSONNoObjectFound(t *testing.T) {
	if _, err := ExtractJSON("no braces here"); err == nil {
		t.Fatal("expected an error when no JSON object is present")
	}
}
