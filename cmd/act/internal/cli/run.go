package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danshapiro/actcore/cmd/act/internal/clidriver"
	"github.com/danshapiro/actcore/internal/boundary"
	"github.com/danshapiro/actcore/internal/debugloop"
	"github.com/danshapiro/actcore/internal/llmdriver"
	"github.com/danshapiro/actcore/internal/llmprovider"
	"github.com/danshapiro/actcore/internal/precheck"
	"github.com/danshapiro/actcore/internal/runconfig"
	"github.com/danshapiro/actcore/internal/scout"
	"github.com/danshapiro/actcore/internal/verifier"
)

var (
	flagLLMCLI    string
	flagMaxFiles  int
	flagDockerBin string
)

var runCmd = &cobra.Command{
	Use:   "run <task description>",
	Short: "Run the debug loop on a task until it succeeds, gets stuck, or hits an infra error",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagLLMCLI, "llm-cli", "", "executable invoked for each Scout LLM call (reads request JSON on stdin)")
	runCmd.Flags().IntVar(&flagMaxFiles, "max-files", 2000, "cap on files discovered per Scout")
	runCmd.Flags().StringVar(&flagDockerBin, "docker-bin", "docker", "docker binary used by the Verifier")
}

// signalCancelContext cancels ctx on SIGINT/SIGTERM, mirroring
// cmd/kilroy/main.go's signalCancelContext pattern.
func signalCancelContext() (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sigCh := make(chan os.Signal, 1)
	stopCh := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			cancel(fmt.Errorf("stopped by signal %s", sig))
		case <-stopCh:
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		close(stopCh)
		cancel(nil)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	taskText := strings.Join(args, " ")
	repoRoot := resolvedRepoRoot()
	artifactRoot := resolvedArtifactRoot()
	configPath := resolvedConfigPath()

	ctx, cancel := signalCancelContext()
	defer cancel()

	pre := precheck.Run(ctx, precheck.Options{RunConfigPath: configPath, DockerBin: flagDockerBin})
	if !pre.OK {
		for _, e := range pre.Errors {
			fmt.Fprintln(os.Stderr, color.RedString("precheck failed:"), e)
		}
		return exitErrorf(1, "startup precheck failed")
	}

	cfg, err := runconfig.Load(configPath)
	if err != nil {
		return exitErrorf(1, "loading run configuration: %v", err)
	}

	enforcer, err := boundary.New(repoRoot, artifactRoot, "")
	if err != nil {
		return exitErrorf(1, "constructing write boundary: %v", err)
	}
	if _, err := enforcer.EnsureAgentDir(); err != nil {
		return exitErrorf(1, "initializing agent directory: %v", err)
	}

	driver := resolveDriver()
	steps := toVerificationSteps(cfg.Steps)

	loop := debugloop.New(debugloop.Dependencies{
		Editor:   boundaryEditor{enforcer: enforcer},
		Verifier: verifier.New(flagDockerBin),
		ScoutConfigA: scout.Config{
			Driver:   driver,
			MaxFiles: flagMaxFiles,
			Policy:   scoutRetryPolicy(cfg.Retry),
		},
		ScoutConfigB: scout.Config{
			Driver:   driver,
			MaxFiles: flagMaxFiles,
			Policy:   scoutRetryPolicy(cfg.Retry),
		},
		RepoRoot:     repoRoot,
		ArtifactRoot: artifactRoot,
		Image:        cfg.Image,
		Steps:        steps,
		Env:          cfg.Env,
		TimeoutMS:    cfg.StepTimeoutMS,
		Boundary:     enforcer,
		Budgets: debugloop.Budgets{
			ConsecutiveFailureThreshold: cfg.Loop.ConsecutiveFailureThreshold,
			TotalVerifyLoopThreshold:    cfg.Loop.TotalVerifyLoopThreshold,
			MaxReplans:                  cfg.Loop.MaxReplans,
		},
	})

	outcome := loop.Run(ctx, taskText)
	return reportOutcome(outcome)
}

func reportOutcome(outcome debugloop.Outcome) error {
	switch outcome.State {
	case debugloop.StateDoneSuccess:
		fmt.Println(color.GreenString("PASS"), fmt.Sprintf("after %d verify attempt(s)", outcome.LoopState.AttemptsMade))
		return nil
	case debugloop.StateDoneStuck:
		fmt.Println(color.YellowString("STUCK"), fmt.Sprintf("after %d verify attempt(s)", outcome.LoopState.AttemptsMade))
		if outcome.Hypothesis != "" {
			fmt.Println(outcome.Hypothesis)
		}
		return exitErrorf(2, "debug loop stopped: stuck")
	case debugloop.StateDoneInfraErr:
		fmt.Println(color.RedString("INFRA_ERROR"), fmt.Sprintf("source=%s", outcome.InfraSource))
		if outcome.InfraError != nil {
			fmt.Fprintln(os.Stderr, outcome.InfraError)
		}
		return exitErrorf(3, "debug loop stopped: infra error")
	default:
		return exitErrorf(1, "debug loop ended in unexpected state %q", outcome.State)
	}
}

func toVerificationSteps(steps []runconfig.Step) []verifier.VerificationStep {
	out := make([]verifier.VerificationStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, verifier.VerificationStep{Name: s.Name, Command: s.Command})
	}
	return out
}

// resolveDriver prefers --llm-cli when set (shelling out to an arbitrary
// executable), otherwise an Anthropic or OpenAI driver built straight from
// environment credentials via llmprovider.FromEnv (which, unlike precheck,
// does not consider ACT_LLM_BASE_URL).
func resolveDriver() llmdriver.Driver {
	if flagLLMCLI != "" {
		return clidriver.New(flagLLMCLI, nil, 0)
	}
	if d, ok := llmprovider.FromEnv(); ok {
		return d
	}
	return clidriver.New("", nil, 0)
}

func scoutRetryPolicy(rc runconfig.RetryConfig) scout.RetryPolicy {
	return scout.RetryPolicy{
		InitialDelay: time.Duration(rc.InitialDelayMS) * time.Millisecond,
		Multiplier:   rc.BackoffFactor,
		MaxDelay:     time.Duration(rc.MaxDelayMS) * time.Millisecond,
		MaxAttempts:  rc.MaxAttempts,
	}
}

// boundaryEditor is a placeholder Editor: source-code editing primitives
// are explicitly out of scope (spec.md §1), so this just validates the
// boundary would accept a write to the repo root and reports that no
// concrete edit was made. A real deployment replaces this with an actual
// editing agent bounded by the same enforcer.
type boundaryEditor struct {
	enforcer *boundary.Enforcer
}

func (e boundaryEditor) Edit(ctx context.Context, req debugloop.EditRequest) error {
	if _, err := e.enforcer.Validate(e.enforcer.RepoRoot()); err != nil {
		return err
	}
	return nil
}
