// Package scoutschema validates Scout A and Scout B report bodies against
// their versioned JSON Schemas. Grounded on internal/agent/tool_registry.go's
// compileSchema/jsonschema.NewCompiler pattern for validating LLM-produced
// JSON against a schema compiled from a Go literal.
package scoutschema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaVersion is the only accepted version string for Scout reports.
const SchemaVersion = "1"

// Kind distinguishes Scout A (codebase map) from Scout B (build/test surface).
type Kind string

const (
	KindScoutA Kind = "scout_a"
	KindScoutB Kind = "scout_b"
)

// scoutASchema describes Scout A's v1 payload: a relevance-tagged file
// list, risk zones, change boundaries, conventions, and prior art.
var scoutASchema = map[string]any{
	"type":     "object",
	"required": []any{"version", "relevant_files", "risk_zones", "change_boundaries", "conventions", "prior_art"},
	"properties": map[string]any{
		"version": map[string]any{"type": "string", "const": "1"},
		"relevant_files": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"path", "relevance"},
				"properties": map[string]any{
					"path":      map[string]any{"type": "string"},
					"relevance": map[string]any{"type": "string", "enum": []any{"high", "medium", "low"}},
					"reason":    map[string]any{"type": "string"},
				},
			},
		},
		"risk_zones":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"change_boundaries": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"conventions":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"prior_art":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

// scoutBSchema describes Scout B's v1 payload: build system/test framework
// detection, command lists, failure analysis, environment issues.
var scoutBSchema = map[string]any{
	"type":     "object",
	"required": []any{"version", "build_system", "test_framework", "build_commands", "test_commands", "failure_analysis", "environment_issues"},
	"properties": map[string]any{
		"version":        map[string]any{"type": "string", "const": "1"},
		"build_system":   map[string]any{"type": "string"},
		"test_framework": map[string]any{"type": "string"},
		"build_commands": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"test_commands":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"failure_analysis": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"step", "summary"},
				"properties": map[string]any{
					"step":    map[string]any{"type": "string"},
					"summary": map[string]any{"type": "string"},
				},
			},
		},
		"environment_issues": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

var (
	compileOnce sync.Once
	compiled    map[Kind]*jsonschema.Schema
	compileErr  error
)

func compileAll() {
	compiled = map[Kind]*jsonschema.Schema{}
	for kind, schema := range map[Kind]map[string]any{KindScoutA: scoutASchema, KindScoutB: scoutBSchema} {
		s, err := compile(schema)
		if err != nil {
			compileErr = fmt.Errorf("scoutschema: compiling %s: %w", kind, err)
			return
		}
		compiled[kind] = s
	}
}

func compile(schema map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", strings.NewReader(string(b))); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// ValidationError reports a Scout report that failed schema or version
// validation.
type ValidationError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoutschema: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("scoutschema: %s: %s", e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Validate parses raw as JSON, rejects any version other than
// SchemaVersion, and validates the body against kind's v1 schema. It
// returns the decoded body as a generic map for the Scout Runtime to embed
// in its typed report.
func Validate(kind Kind, raw []byte) (map[string]any, error) {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return nil, &ValidationError{Kind: kind, Message: "schema compilation failed", Cause: compileErr}
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ValidationError{Kind: kind, Message: "response is not valid JSON", Cause: err}
	}

	version, _ := body["version"].(string)
	if version != SchemaVersion {
		return nil, &ValidationError{Kind: kind, Message: fmt.Sprintf("unsupported schema version %q, expected %q", version, SchemaVersion)}
	}

	schema, ok := compiled[kind]
	if !ok {
		return nil, &ValidationError{Kind: kind, Message: fmt.Sprintf("no schema registered for kind %q", kind)}
	}
	if err := schema.Validate(body); err != nil {
		return nil, &ValidationError{Kind: kind, Message: "schema validation failed", Cause: err}
	}
	return body, nil
}

// ExtractJSON finds the first top-level JSON object in text, tolerating
// prose wrapping the way an LLM response often does (e.g. a code fence or
// a leading explanation). Returns an error if no balanced object is found.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, fmt.Errorf("scoutschema: no JSON object found in response")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return []byte(text[start : i+1]), nil
			}
		}
	}
	return nil, fmt.Errorf("scoutschema: unbalanced JSON object in response")
}
