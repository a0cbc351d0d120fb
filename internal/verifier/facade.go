// Package verifier runs a declarative verification pipeline inside an
// isolated container sandbox and reports a uniform PASS/FAIL/INFRA_ERROR
// response backed by persisted, inspectable artifacts.
package verifier

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danshapiro/actcore/internal/artifacts"
	"github.com/danshapiro/actcore/internal/obslog"
)

// Config configures a single Verifier.Verify call.
type Config struct {
	Steps        []VerificationStep
	Image        string
	Env          map[string]string
	RepoRoot     string
	ArtifactRoot string
	CPULimit     string
	MemoryLimit  string
	TimeoutMS    int
	DockerBin    string
}

// Verifier orchestrates run allocation, container acquisition, pipeline
// execution, and manifest persistence into a single unified response.
type Verifier struct {
	containers containerManager
	logger     *obslog.Logger
}

// New constructs a Verifier. dockerBin defaults to "docker" when empty.
func New(dockerBin string) *Verifier {
	return &Verifier{containers: NewContainerManager(dockerBin), logger: obslog.Default("verifier")}
}

// WithLogger returns a copy of v logging through l instead of the default
// stderr logger, mirroring obslog.Logger.With's component-scoping idiom.
func (v *Verifier) WithLogger(l *obslog.Logger) *Verifier {
	nv := *v
	nv.logger = l
	return &nv
}

func (v *Verifier) log() *obslog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return obslog.Default("verifier")
}

// Verify runs cfg.Steps inside a fresh container bound to cfg.RepoRoot and
// returns the unified response. The container is always released before
// returning, on every exit path.
func (v *Verifier) Verify(ctx context.Context, cfg Config) Response {
	runDir, err := artifacts.AllocateRun(cfg.ArtifactRoot)
	if err != nil {
		return newInfraErrorResponse(ErrUnknown, fmt.Sprintf("failed to allocate run directory: %v", err), "", "", nil, nil)
	}

	timestampStart := artifacts.UTCTimestamp()

	handle, acquireErr := v.containers.Acquire(ctx, ContainerConfig{
		Image:       cfg.Image,
		CPULimit:    cfg.CPULimit,
		MemoryLimit: cfg.MemoryLimit,
		RepoRoot:    cfg.RepoRoot,
		RunTmpDir:   runDir.TmpDir,
		RunDbDir:    runDir.DbDir,
		Env:         cfg.Env,
	})
	if acquireErr != nil {
		m := v.bestEffortManifest(cfg, runDir, timestampStart, StatusInfraError, nil)
		v.persistManifest(runDir, m)
		artifactPaths, _ := ListArtifactPaths(runDir.Dir)

		var cerr *ContainerError
		errType, message := ErrUnknown, acquireErr.Error()
		if ok := asContainerError(acquireErr, &cerr); ok {
			errType, message = cerr.ErrorType, cerr.Error()
		}
		return newInfraErrorResponse(errType, message, string(runDir.RunID), "", artifactPaths, &m)
	}
	defer v.containers.Release(handle)

	executor := NewPipelineExecutor(v.containers, handle, runDir.LogsDir, cfg.TimeoutMS)
	results, allPassed, execErr := executor.ExecuteSteps(ctx, cfg.Steps, cfg.Env)

	if execErr != nil {
		v.log().Error("pipeline execution failed", obslog.Fields{"run_id": runDir.RunID, "error": execErr.Error()})
		m := v.bestEffortManifest(cfg, runDir, timestampStart, StatusInfraError, results)
		v.persistManifest(runDir, m)
		tailLog := ExtractTail(filepath.Join(runDir.LogsDir, "combined.log"), DefaultTailLines)
		artifactPaths, _ := ListArtifactPaths(runDir.Dir)

		// A PipelineError is always an ErrUnknown-classified infra failure
		// (spec.md §7's PipelineError row); only ContainerError carries its
		// own classified error_type, and that path never reaches here.
		return newInfraErrorResponse(ErrUnknown, execErr.Error(), string(runDir.RunID), tailLog, artifactPaths, &m)
	}

	status := StatusFail
	if allPassed {
		status = StatusPass
	}

	m := v.bestEffortManifest(cfg, runDir, timestampStart, status, results)
	v.persistManifest(runDir, m)

	tailLog := ExtractTail(filepath.Join(runDir.LogsDir, "combined.log"), DefaultTailLines)
	artifactPaths, _ := ListArtifactPaths(runDir.Dir)

	if status == StatusPass {
		return newPassResponse(string(runDir.RunID), tailLog, artifactPaths, &m)
	}
	return newFailResponse(string(runDir.RunID), tailLog, artifactPaths, &m)
}

// persistManifest writes m to runDir and logs (never escalates) a write
// failure — spec.md §4.6 requires the container still release on every
// path, including a manifest write failure, but also requires that failure
// not vanish silently (§4.2/§7's "the manifest write failure is itself
// logged").
func (v *Verifier) persistManifest(runDir *artifacts.RunDir, m artifacts.Manifest) {
	if _, err := artifacts.WriteManifest(runDir.Dir, m); err != nil {
		v.log().Warn("failed to persist manifest", obslog.Fields{"run_id": runDir.RunID, "error": err.Error()})
	}
}

func (v *Verifier) bestEffortManifest(cfg Config, runDir *artifacts.RunDir, timestampStart string, status Status, results []StepResult) artifacts.Manifest {
	commands := make([]artifacts.CommandResult, 0, len(results))
	for _, r := range results {
		commands = append(commands, artifacts.CommandResult{
			Name:       r.Name,
			Command:    r.Command,
			ExitCode:   r.ExitCode,
			DurationMS: r.DurationMS,
		})
	}

	return artifacts.Manifest{
		RunID:            string(runDir.RunID),
		TimestampStart:   timestampStart,
		TimestampEnd:     artifacts.UTCTimestamp(),
		CommitSHA:        artifacts.CurrentCommitSHA(cfg.RepoRoot),
		Status:           artifacts.Status(status),
		CommandsExecuted: commands,
		Platform:         artifacts.PlatformInfoFor(cfg.Image),
	}
}

func asContainerError(err error, target **ContainerError) bool {
	ce, ok := err.(*ContainerError)
	if ok {
		*target = ce
	}
	return ok
}
