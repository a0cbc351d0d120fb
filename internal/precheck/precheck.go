// Package precheck runs the startup validation gate before a task ever
// reaches the Debug Loop's first SCOUTING state: the run configuration
// file must exist, an LLM backend must be configured, and Docker must be
// reachable. Grounded on the three-check, all-errors-collected shape of
// internal/attractor/engine/run_with_config.go's preflight checks and on
// internal/verifier/container.go's ContainerManager.Ping for the Docker
// reachability probe itself.
package precheck

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Options configures a precheck run.
type Options struct {
	RunConfigPath string
	// LLMEnvVars lists the environment variables checked for LLM
	// credentials; at least one must be non-empty. Defaults to
	// {"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "ACT_LLM_BASE_URL"}.
	LLMEnvVars []string
	DockerBin  string
}

func (o Options) llmEnvVars() []string {
	if len(o.LLMEnvVars) > 0 {
		return o.LLMEnvVars
	}
	return []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "ACT_LLM_BASE_URL"}
}

func (o Options) dockerBin() string {
	if o.DockerBin != "" {
		return o.DockerBin
	}
	return "docker"
}

// Result is the outcome of all three independent checks.
type Result struct {
	OK                bool
	ConfigPathExists  bool
	LLMConfigured     bool
	DockerAvailable   bool
	Errors            []string
}

// Run executes all three checks unconditionally and collects every
// failure; no check short-circuits another (spec.md's testable property
// "Precheck independence").
func Run(ctx context.Context, opts Options) Result {
	var r Result
	var errs []string

	r.ConfigPathExists = checkConfigPath(opts.RunConfigPath, &errs)
	r.LLMConfigured = checkLLMConfigured(opts.llmEnvVars(), &errs)
	r.DockerAvailable = checkDockerAvailable(ctx, opts.dockerBin(), &errs)

	r.Errors = errs
	r.OK = r.ConfigPathExists && r.LLMConfigured && r.DockerAvailable
	return r
}

func checkConfigPath(path string, errs *[]string) bool {
	if strings.TrimSpace(path) == "" {
		*errs = append(*errs, "no run configuration path provided")
		return false
	}
	if _, err := os.Stat(path); err != nil {
		*errs = append(*errs, fmt.Sprintf("run configuration file not found: %s", path))
		return false
	}
	return true
}

func checkLLMConfigured(envVars []string, errs *[]string) bool {
	for _, v := range envVars {
		if strings.TrimSpace(os.Getenv(v)) != "" {
			return true
		}
	}
	*errs = append(*errs, fmt.Sprintf("no LLM backend configured: set one of %s", strings.Join(envVars, ", ")))
	return false
}

// checkDockerAvailable distinguishes three failure messages: the docker
// binary is not on PATH, `docker info` fails, or `docker info` does not
// answer before its deadline.
func checkDockerAvailable(ctx context.Context, dockerBin string, errs *[]string) bool {
	if _, err := exec.LookPath(dockerBin); err != nil {
		*errs = append(*errs, fmt.Sprintf("docker is not installed: %s not found on PATH", dockerBin))
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, dockerBin, "info")
	err := cmd.Run()
	if checkCtx.Err() != nil {
		*errs = append(*errs, "docker is not responding (timed out after 10s)")
		return false
	}
	if err != nil {
		*errs = append(*errs, "docker is not running")
		return false
	}
	return true
}
