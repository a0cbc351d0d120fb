// Package boundary enforces where the Editor is allowed to write. The
// Editor may touch the repository working tree and its agent/ context
// directory; it must never write outside the repo root or into the
// artifact directory, which belongs to the Verifier.
package boundary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteBoundaryError reports a path that falls outside allowed write
// boundaries.
type WriteBoundaryError struct {
	Message       string
	AttemptedPath string
}

func (e *WriteBoundaryError) Error() string {
	return e.Message
}

func newBoundaryError(format, attempted string, args ...any) *WriteBoundaryError {
	return &WriteBoundaryError{
		Message:       fmt.Sprintf(format, args...),
		AttemptedPath: attempted,
	}
}

// Enforcer validates paths against a repository's write boundaries.
type Enforcer struct {
	repoRoot     string
	agentDirName string
	agentDir     string
	artifactDir  string
}

// New constructs an Enforcer rooted at repoRoot, with an optional
// artifactDir that is explicitly blocked for writes (the Verifier owns
// that tree). agentDirName defaults to "agent" when empty.
func New(repoRoot, artifactDir, agentDirName string) (*Enforcer, error) {
	if agentDirName == "" {
		agentDirName = "agent"
	}
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("boundary: resolving repo root %q: %w", repoRoot, err)
	}
	absRoot = canonicalize(filepath.Clean(absRoot))

	e := &Enforcer{
		repoRoot:     absRoot,
		agentDirName: agentDirName,
		agentDir:     filepath.Join(absRoot, agentDirName),
	}
	if artifactDir != "" {
		absArtifact, err := filepath.Abs(artifactDir)
		if err != nil {
			return nil, fmt.Errorf("boundary: resolving artifact dir %q: %w", artifactDir, err)
		}
		e.artifactDir = canonicalize(filepath.Clean(absArtifact))
	}
	return e, nil
}

func (e *Enforcer) resolve(path string) string {
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(e.repoRoot, path))
	}
	return canonicalize(abs)
}

// canonicalize resolves symlinks in path so that a symlink inside the repo
// pointing outside of it cannot be used to escape the write boundary. The
// target path itself need not exist (the Editor may be about to create
// it), so symlinks are resolved on the deepest existing ancestor and the
// remaining, not-yet-created suffix is reattached unresolved.
func canonicalize(abs string) string {
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}

	dir, base := filepath.Dir(abs), filepath.Base(abs)
	if dir == abs {
		return abs
	}
	return filepath.Join(canonicalize(dir), base)
}

// isWithin reports whether target is child equal to root, using string
// prefix comparison on cleaned, separator-terminated paths so that
// "/repo2" is never mistaken for a child of "/repo".
func isWithin(root, target string) bool {
	if root == target {
		return true
	}
	rootWithSep := root
	if !strings.HasSuffix(rootWithSep, string(filepath.Separator)) {
		rootWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(target, rootWithSep)
}

// Validate checks that path is within the repository root and, if an
// artifact directory is configured, outside of it. It returns the
// resolved absolute path on success.
func (e *Enforcer) Validate(path string) (string, error) {
	resolved := e.resolve(path)

	if !isWithin(e.repoRoot, resolved) {
		return "", newBoundaryError("path is outside repository root: %s", resolved, resolved)
	}

	if e.artifactDir != "" && isWithin(e.artifactDir, resolved) {
		return "", newBoundaryError("cannot write to artifact directory: %s", resolved, resolved)
	}

	return resolved, nil
}

// IsInAgentDir reports whether path resolves into the agent directory.
func (e *Enforcer) IsInAgentDir(path string) bool {
	return isWithin(e.agentDir, e.resolve(path))
}

// IsInRepo reports whether path resolves within the repository root.
func (e *Enforcer) IsInRepo(path string) bool {
	return isWithin(e.repoRoot, e.resolve(path))
}

// RelativePath validates path and returns it relative to the repo root.
func (e *Enforcer) RelativePath(path string) (string, error) {
	resolved, err := e.Validate(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(e.repoRoot, resolved)
	if err != nil {
		return "", fmt.Errorf("boundary: computing relative path for %s: %w", resolved, err)
	}
	return rel, nil
}

// RepoRoot returns the enforcer's resolved repository root.
func (e *Enforcer) RepoRoot() string { return e.repoRoot }

// AgentDir returns the enforcer's resolved agent directory.
func (e *Enforcer) AgentDir() string { return e.agentDir }

// gitignoreEntries returns the forms a prior entry for the agent directory
// named name could already take in a repo's .gitignore, so EnsureAgentDir
// never double-adds one.
func gitignoreEntries(name string) map[string]bool {
	return map[string]bool{
		name + "/": true, name: true, "/" + name + "/": true, "/" + name: true,
	}
}

// EnsureAgentDir creates the enforcer's agent directory if absent and adds
// its gitignore entry if missing, returning whether .gitignore was
// modified. It is the one place the Editor's working directory for
// out-of-band agent state (scratch notes, hypothesis drafts) is
// materialized on disk; nothing here validates the paths it touches
// against the boundary, since the agent directory is by definition already
// inside the repo root.
func (e *Enforcer) EnsureAgentDir() (gitignoreModified bool, err error) {
	if mkErr := os.MkdirAll(e.agentDir, 0o755); mkErr != nil {
		return false, fmt.Errorf("boundary: creating agent directory %q: %w", e.agentDir, mkErr)
	}

	gitignorePath := filepath.Join(e.repoRoot, ".gitignore")
	existing, readErr := os.ReadFile(gitignorePath)
	if readErr != nil && !os.IsNotExist(readErr) {
		return false, fmt.Errorf("boundary: reading %q: %w", gitignorePath, readErr)
	}

	content := string(existing)
	forms := gitignoreEntries(e.agentDirName)
	for _, line := range strings.Split(content, "\n") {
		if forms[strings.TrimSpace(line)] {
			return false, nil
		}
	}

	entry := e.agentDirName + "/"
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if writeErr := os.WriteFile(gitignorePath, []byte(content), 0o644); writeErr != nil {
		return false, fmt.Errorf("boundary: writing %q: %w", gitignorePath, writeErr)
	}
	return true, nil
}
