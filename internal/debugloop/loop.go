// Package debugloop implements the iterative control loop that sequences
// Scout analysis, implementation, verification, and termination under
// hard-stop and replan budgets (spec.md §4.10, C10).
package debugloop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/danshapiro/actcore/internal/artifacts"
	"github.com/danshapiro/actcore/internal/boundary"
	"github.com/danshapiro/actcore/internal/obslog"
	"github.com/danshapiro/actcore/internal/scout"
	"github.com/danshapiro/actcore/internal/scoutcache"
	"github.com/danshapiro/actcore/internal/scoutfilter"
	"github.com/danshapiro/actcore/internal/scoutschema"
	"github.com/danshapiro/actcore/internal/verifier"
)

// State is one node of the Debug Loop's state machine.
type State string

const (
	StateParsing       State = "PARSING"
	StateScouting      State = "SCOUTING"
	StateImplementing  State = "IMPLEMENTING"
	StateVerifying     State = "VERIFYING"
	StateInterpreting  State = "INTERPRETING"
	StateDoneSuccess   State = "DONE_SUCCESS"
	StateDoneStuck     State = "DONE_STUCK"
	StateDoneInfraErr  State = "DONE_INFRA_ERROR"
)

// Budgets are the loop's iteration caps (spec.md §4.10).
type Budgets struct {
	ConsecutiveFailureThreshold int
	TotalVerifyLoopThreshold    int
	MaxReplans                  int // <= 0 means unbounded
}

func (b Budgets) maxReplans() int {
	if b.MaxReplans <= 0 {
		return math.MaxInt
	}
	return b.MaxReplans
}

// LoopState is the mutable accumulator threaded through one task's run.
type LoopState struct {
	AttemptsMade        int
	ConsecutiveFailures int
	ReplansUsed         int
	RunIDs              []string
	LastResponse        *verifier.Response
}

// ScoutContext aggregates both scouts' reports for the Editor and for
// stuck-report hypothesis synthesis.
type ScoutContext struct {
	ScoutA *scout.Report
	ScoutB *scout.Report
}

// Outcome is the Debug Loop's terminal result.
type Outcome struct {
	State       State
	LoopState   LoopState
	InfraSource InfraSource
	InfraError  error
	Hypothesis  string // set on DONE_STUCK's task-not-understood path
	StuckReport string // set on DONE_STUCK; also persisted to disk

	// TaskID correlates every log line emitted for one Run call, generated
	// fresh per call the same way the teacher mints session and tool-call
	// IDs (internal/agent/session.go, internal/attractor/engine/handlers.go):
	// ulid.Make().String(). Unlike RunID, it carries no on-disk naming
	// constraint, so it uses the teacher's own ID idiom directly.
	TaskID string
}

// Dependencies wires the Debug Loop to the rest of the system. Fields
// documented as optional fall back to a core-owned default so the loop
// never requires an LLM-backed implementation to run deterministically in
// tests.
// Verifier is the narrow interface the Debug Loop needs out of C6; the
// concrete *verifier.Verifier satisfies it, and tests can substitute a fake
// that never touches Docker.
type Verifier interface {
	Verify(ctx context.Context, cfg verifier.Config) verifier.Response
}

type Dependencies struct {
	Editor   Editor
	Verifier Verifier

	// ScoutConfigA/B carry each scout's llmdriver.Driver, model hint, and
	// retry policy; Driver must be set by the caller.
	ScoutConfigA scout.Config
	ScoutConfigB scout.Config

	RepoRoot     string
	ArtifactRoot string
	Image        string
	Steps        []verifier.VerificationStep
	Env          map[string]string
	TimeoutMS    int
	CPULimit     string
	MemoryLimit  string

	Boundary *boundary.Enforcer

	Budgets Budgets

	// HypothesisComposer defaults to DefaultHypothesisComposer when nil.
	HypothesisComposer HypothesisComposer

	Logger *obslog.Logger

	// Now defaults to time.Now when nil; overridable for deterministic tests.
	Now func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d Dependencies) hypothesisComposer() HypothesisComposer {
	if d.HypothesisComposer != nil {
		return d.HypothesisComposer
	}
	return DefaultHypothesisComposer{}
}

func (d Dependencies) logger() *obslog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return obslog.Default("debugloop")
}

// Loop runs one task to a terminal state.
type Loop struct {
	deps Dependencies
}

// New constructs a Loop from its dependencies.
func New(deps Dependencies) *Loop {
	return &Loop{deps: deps}
}

// Run executes the full PARSING → ... → DONE_* state machine for one task
// description and returns the terminal Outcome. It never panics and never
// lets an internal error escape uncaught; every failure mode is reified
// into an Outcome per spec.md §7.
func (l *Loop) Run(ctx context.Context, taskText string) Outcome {
	taskID := ulid.Make().String()
	log := l.deps.logger().With(taskID)

	constraints, err := ParseTask(taskText)
	if err != nil {
		log.Warn("task parse failed", obslog.Fields{"error": err.Error()})
		return Outcome{State: StateDoneStuck, Hypothesis: "task not understood: " + err.Error(), TaskID: taskID}
	}

	ls := LoopState{}
	state := StateScouting
	var scoutCtx ScoutContext

	for {
		select {
		case <-ctx.Done():
			return Outcome{State: StateDoneInfraErr, InfraSource: SourceVerifier, InfraError: ctx.Err(), LoopState: ls, TaskID: taskID}
		default:
		}

		switch state {
		case StateScouting:
			log.Info("scouting", obslog.Fields{"replans_used": ls.ReplansUsed})
			aReport, bReport, source, err := l.runScouts(ctx, taskText)
			if err != nil {
				log.Error("scout failed", obslog.Fields{"source": source, "error": err.Error()})
				return Outcome{State: StateDoneInfraErr, InfraSource: source, InfraError: err, LoopState: ls, TaskID: taskID}
			}
			scoutCtx = ScoutContext{ScoutA: aReport, ScoutB: bReport}
			state = StateImplementing

		case StateImplementing:
			log.Info("implementing", obslog.Fields{"attempt": ls.AttemptsMade + 1})
			err := l.deps.Editor.Edit(ctx, EditRequest{Task: constraints, ScoutA: scoutCtx.ScoutA, ScoutB: scoutCtx.ScoutB})
			if err != nil {
				var be *boundary.WriteBoundaryError
				source := SourceEditor
				if errors.As(err, &be) {
					source = SourceEditorBoundary
				}
				log.Error("editor failed", obslog.Fields{"source": source, "error": err.Error()})
				return Outcome{State: StateDoneInfraErr, InfraSource: source, InfraError: err, LoopState: ls, TaskID: taskID}
			}
			state = StateVerifying

		case StateVerifying:
			resp := l.deps.Verifier.Verify(ctx, verifier.Config{
				Steps:        l.deps.Steps,
				Image:        l.deps.Image,
				Env:          l.deps.Env,
				RepoRoot:     l.deps.RepoRoot,
				ArtifactRoot: l.deps.ArtifactRoot,
				CPULimit:     l.deps.CPULimit,
				MemoryLimit:  l.deps.MemoryLimit,
				TimeoutMS:    l.deps.TimeoutMS,
			})
			ls.AttemptsMade++
			if resp.RunID != "" {
				ls.RunIDs = append(ls.RunIDs, resp.RunID)
			}
			ls.LastResponse = &resp
			log.Info("verified", obslog.Fields{"status": resp.Status, "run_id": resp.RunID, "attempt": ls.AttemptsMade})
			state = StateInterpreting

		case StateInterpreting:
			resp := ls.LastResponse
			switch resp.Status {
			case verifier.StatusPass:
				log.Info("done success", obslog.Fields{"attempts": ls.AttemptsMade})
				return Outcome{State: StateDoneSuccess, LoopState: ls, TaskID: taskID}

			case verifier.StatusFail:
				ls.ConsecutiveFailures++
				if ls.AttemptsMade >= l.deps.Budgets.TotalVerifyLoopThreshold {
					report := l.writeStuckReport(constraints, ls, scoutCtx)
					log.Warn("hard stop", obslog.Fields{"attempts": ls.AttemptsMade})
					return Outcome{State: StateDoneStuck, LoopState: ls, StuckReport: report, TaskID: taskID}
				}
				if ls.ConsecutiveFailures >= l.deps.Budgets.ConsecutiveFailureThreshold && ls.ReplansUsed < l.deps.Budgets.maxReplans() {
					ls.ReplansUsed++
					ls.ConsecutiveFailures = 0
					state = StateScouting
				} else {
					state = StateImplementing
				}

			case verifier.StatusInfraError:
				log.Error("verifier infra error", obslog.Fields{"error_type": resp.ErrorType, "message": resp.ErrorMessage})
				return Outcome{State: StateDoneInfraErr, InfraSource: SourceVerifier, InfraError: fmt.Errorf("%s: %s", resp.ErrorType, resp.ErrorMessage), LoopState: ls, TaskID: taskID}

			default:
				return Outcome{State: StateDoneInfraErr, InfraSource: SourceVerifier, InfraError: fmt.Errorf("unknown verifier status %q", resp.Status), LoopState: ls, TaskID: taskID}
			}
		}
	}
}

// runScouts invokes Scout A and Scout B concurrently, consulting the scout
// cache first, and joins before returning. Either failing alone fails the
// loop; both complete independently (spec.md §9 "Concurrent Scouts").
func (l *Loop) runScouts(ctx context.Context, taskText string) (*scout.Report, *scout.Report, InfraSource, error) {
	var wg sync.WaitGroup
	var aReport, bReport *scout.Report
	var aErr, bErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		aReport, aErr = l.runCachedScout(ctx, scoutschema.KindScoutA, taskText, func(ctx context.Context, cfg scout.Config) (*scout.Report, error) {
			return scout.RunScoutA(ctx, cfg)
		})
	}()
	go func() {
		defer wg.Done()
		bReport, bErr = l.runCachedScout(ctx, scoutschema.KindScoutB, taskText, func(ctx context.Context, cfg scout.Config) (*scout.Report, error) {
			return scout.RunScoutB(ctx, cfg)
		})
	}()
	wg.Wait()

	if aErr != nil {
		return nil, nil, SourceScoutA, aErr
	}
	if bErr != nil {
		return nil, nil, SourceScoutB, bErr
	}
	return aReport, bReport, "", nil
}

func (l *Loop) runCachedScout(ctx context.Context, kind scoutschema.Kind, taskText string, invoke func(context.Context, scout.Config) (*scout.Report, error)) (*scout.Report, error) {
	cfg := l.deps.ScoutConfigA
	if kind == scoutschema.KindScoutB {
		cfg = l.deps.ScoutConfigB
	}
	cfg.RepoRoot = l.deps.RepoRoot
	cfg.TaskText = taskText

	files, err := scoutfilter.Discover(l.deps.RepoRoot, cfg.MaxFiles)
	if err == nil {
		key := scoutcache.CacheKey(files, taskText)
		if cached, ok := scoutcache.Get(l.deps.ArtifactRoot, key, kind); ok {
			return &scout.Report{Kind: kind, Version: cached.SchemaVersion, Body: cached.Payload}, nil
		}
		report, err := invoke(ctx, cfg)
		if err != nil {
			return nil, err
		}
		_ = scoutcache.Put(l.deps.ArtifactRoot, key, kind, report.Body, l.deps.now())
		return report, nil
	}

	return invoke(ctx, cfg)
}

func (l *Loop) writeStuckReport(task *TaskConstraints, ls LoopState, scoutCtx ScoutContext) string {
	hypotheses, _ := l.deps.hypothesisComposer().Compose(task, &scoutCtx)
	report := RenderStuckReport(task, ls, hypotheses, l.deps.now())

	if len(ls.RunIDs) == 0 {
		return report
	}
	latestRunID := ls.RunIDs[len(ls.RunIDs)-1]
	runDir := filepath.Join(artifacts.RunsDir(l.deps.ArtifactRoot), latestRunID)
	_ = os.WriteFile(filepath.Join(runDir, artifacts.StuckReportFilename), []byte(report), 0o644)
	return report
}
