package verifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultTailLines is the number of trailing lines extract_tail returns.
const DefaultTailLines = 200

// StepLogFilename returns the per-step log filename: step-<NN>-<name>.log.
func StepLogFilename(stepNumber int, stepName string) string {
	return fmt.Sprintf("step-%02d-%s.log", stepNumber, stepName)
}

// WriteStepLog writes output to the step's individual log file under
// logsDir and returns the path written.
func WriteStepLog(logsDir string, stepNumber int, stepName, output string) (string, error) {
	path := filepath.Join(logsDir, StepLogFilename(stepNumber, stepName))
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return "", &LogError{Message: "failed to write step log", Cause: err}
	}
	return path, nil
}

// AppendCombinedLog appends output to combined.log, creating it if absent,
// ensuring the file ends with a trailing newline after the append.
func AppendCombinedLog(logsDir, output string) (string, error) {
	path := filepath.Join(logsDir, "combined.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", &LogError{Message: "failed to append to combined log", Cause: err}
	}
	defer f.Close()

	if _, err := f.WriteString(output); err != nil {
		return "", &LogError{Message: "failed to append to combined log", Cause: err}
	}
	if output != "" && !strings.HasSuffix(output, "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return "", &LogError{Message: "failed to append to combined log", Cause: err}
		}
	}
	return path, nil
}

// ExtractTail returns the last n lines of the combined log at path. A
// missing file, unreadable file, or empty file all yield "".
func ExtractTail(combinedLogPath string, n int) string {
	if n <= 0 {
		n = DefaultTailLines
	}
	content, err := os.ReadFile(combinedLogPath)
	if err != nil {
		return ""
	}
	if len(content) == 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// ListArtifactPaths recursively lists every regular file under runDir,
// sorted lexicographically. Returns an empty slice if runDir is absent.
func ListArtifactPaths(runDir string) ([]string, error) {
	if _, err := os.Stat(runDir); err != nil {
		return []string{}, nil
	}

	var paths []string
	err := filepath.Walk(runDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LogError{Message: "failed to enumerate artifacts", Cause: err}
	}
	sort.Strings(paths)
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}
