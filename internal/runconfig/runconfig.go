// Package runconfig loads and validates the declarative run configuration
// consumed by the Verifier Facade and Debug Loop: the step list, container
// image, timeouts, retention caps, retry/backoff knobs, and loop budgets.
// Grounded on internal/attractor/engine/config.go's YAML/JSON dual-format
// decode and on daydemir-ralph's internal/config/config.go layered-default
// pattern.
package runconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RetentionConfig caps the artifact store's run-count and age.
type RetentionConfig struct {
	MaxRuns    int `yaml:"max_runs" json:"max_runs"`
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`
}

// RetryConfig configures Scout retry/backoff.
type RetryConfig struct {
	InitialDelayMS int     `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor" json:"backoff_factor"`
	MaxDelayMS     int     `yaml:"max_delay_ms" json:"max_delay_ms"`
	Jitter         bool    `yaml:"jitter" json:"jitter"`
	MaxAttempts    int     `yaml:"max_attempts" json:"max_attempts"`
}

// LoopConfig configures the Debug Loop's budgets.
type LoopConfig struct {
	ConsecutiveFailureThreshold int `yaml:"consecutive_failure_threshold" json:"consecutive_failure_threshold"`
	TotalVerifyLoopThreshold    int `yaml:"total_verify_loop_threshold" json:"total_verify_loop_threshold"`
	MaxReplans                  int `yaml:"max_replans" json:"max_replans"`
}

// Step is one declarative verification pipeline step.
type Step struct {
	Name    string `yaml:"name" json:"name"`
	Command string `yaml:"command" json:"command"`
}

// RunConfig is the fully decoded and defaulted run configuration.
type RunConfig struct {
	Version       string            `yaml:"version" json:"version"`
	Image         string            `yaml:"image" json:"image"`
	Steps         []Step            `yaml:"steps" json:"steps"`
	StepTimeoutMS int               `yaml:"step_timeout_ms" json:"step_timeout_ms"`
	Env           map[string]string `yaml:"env" json:"env"`
	Retention     RetentionConfig   `yaml:"retention" json:"retention"`
	Retry         RetryConfig       `yaml:"retry" json:"retry"`
	Loop          LoopConfig        `yaml:"loop" json:"loop"`
}

// Error wraps any decode or validation failure so callers never mistake a
// config problem for a successfully-loaded (if weirdly-defaulted) config.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("runconfig: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Load reads a run configuration file from path. YAML is the default
// format; a ".json" extension selects JSON. Decoding is strict: unknown
// top-level keys are rejected.
func Load(path string) (*RunConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "read", Err: err}
	}

	var cfg RunConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(strings.NewReader(string(b)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, &Error{Op: "decode json", Err: err}
		}
	} else {
		if err := decodeStrictYAML(b, &cfg); err != nil {
			return nil, &Error{Op: "decode yaml", Err: err}
		}
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, &Error{Op: "validate", Err: err}
	}
	return &cfg, nil
}

// decodeStrictYAML rejects unknown top-level keys the way
// json.Decoder.DisallowUnknownFields does, by decoding via yaml.Node first.
func decodeStrictYAML(b []byte, cfg *RunConfig) error {
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		return nil
	}
	doc := node.Content[0]
	if doc.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping at the document root")
	}
	known := map[string]bool{
		"version": true, "image": true, "steps": true, "step_timeout_ms": true,
		"env": true, "retention": true, "retry": true, "loop": true,
	}
	for i := 0; i < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		if !known[key] {
			return fmt.Errorf("unknown top-level key %q", key)
		}
	}
	return node.Decode(cfg)
}

// applyDefaults fills unset fields per spec.md's stated defaults.
func applyDefaults(cfg *RunConfig) {
	if cfg.StepTimeoutMS <= 0 {
		cfg.StepTimeoutMS = 300_000
	}
	if cfg.Retention.MaxRuns <= 0 {
		cfg.Retention.MaxRuns = 20
	}
	if cfg.Retention.MaxAgeDays <= 0 {
		cfg.Retention.MaxAgeDays = 14
	}
	if cfg.Retry.InitialDelayMS <= 0 {
		cfg.Retry.InitialDelayMS = 1000
	}
	if cfg.Retry.BackoffFactor <= 0 {
		cfg.Retry.BackoffFactor = 2.0
	}
	if cfg.Retry.MaxDelayMS <= 0 {
		cfg.Retry.MaxDelayMS = 30_000
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Loop.ConsecutiveFailureThreshold <= 0 {
		cfg.Loop.ConsecutiveFailureThreshold = 3
	}
	if cfg.Loop.TotalVerifyLoopThreshold <= 0 {
		cfg.Loop.TotalVerifyLoopThreshold = 12
	}
	// MaxReplans defaults to unbounded (0 means "no explicit cap" in the
	// loop's own comparison, represented as math.MaxInt there).
}

func validate(cfg *RunConfig) error {
	if len(cfg.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, s := range cfg.Steps {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("step %d: name is required", i)
		}
		if strings.TrimSpace(s.Command) == "" {
			return fmt.Errorf("step %d: command is required", i)
		}
	}
	if cfg.StepTimeoutMS <= 0 {
		return fmt.Errorf("step_timeout_ms must be positive")
	}
	if cfg.Retention.MaxRuns <= 0 || cfg.Retention.MaxAgeDays <= 0 {
		return fmt.Errorf("retention caps must be positive")
	}
	return nil
}
