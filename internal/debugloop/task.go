package debugloop

import (
	"fmt"
	"strings"
)

// TaskConstraints is the parsed form of a natural-language engineering
// task: its free-text description plus any explicit success criteria the
// task author called out.
type TaskConstraints struct {
	Description      string
	SuccessCriteria  []string
	Constraints      []string
}

// TaskParseError is raised when a task description cannot be parsed at
// all (e.g. empty input). It maps to DONE_STUCK per spec.md §4.10.
type TaskParseError struct {
	Message string
}

func (e *TaskParseError) Error() string { return "task parse error: " + e.Message }

// ParseTask splits a free-text task description into its prose
// description plus explicit success-criteria/constraint bullet lines.
// Lines under a "Success:"/"Criteria:" heading become SuccessCriteria;
// lines under "Constraints:"/"Must not:" become Constraints; everything
// else is Description. This is a heuristic, not an LLM call — task
// parsing stays in the core per spec.md §4.10 item 1.
func ParseTask(raw string) (*TaskConstraints, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &TaskParseError{Message: "task description is empty"}
	}

	tc := &TaskConstraints{}
	section := "description"
	var descLines []string

	for _, line := range strings.Split(trimmed, "\n") {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)
		switch {
		case strings.HasPrefix(lower, "success:"), strings.HasPrefix(lower, "success criteria:"), strings.HasPrefix(lower, "criteria:"):
			section = "success"
			rest := strings.TrimSpace(l[strings.IndexByte(l, ':')+1:])
			if rest != "" {
				tc.SuccessCriteria = append(tc.SuccessCriteria, rest)
			}
			continue
		case strings.HasPrefix(lower, "constraints:"), strings.HasPrefix(lower, "must not:"), strings.HasPrefix(lower, "non-goals:"):
			section = "constraints"
			rest := strings.TrimSpace(l[strings.IndexByte(l, ':')+1:])
			if rest != "" {
				tc.Constraints = append(tc.Constraints, rest)
			}
			continue
		}

		if l == "" {
			continue
		}
		bullet := strings.TrimPrefix(strings.TrimPrefix(l, "- "), "* ")
		switch section {
		case "success":
			tc.SuccessCriteria = append(tc.SuccessCriteria, bullet)
		case "constraints":
			tc.Constraints = append(tc.Constraints, bullet)
		default:
			descLines = append(descLines, l)
		}
	}

	tc.Description = strings.Join(descLines, "\n")
	if tc.Description == "" && len(tc.SuccessCriteria) == 0 && len(tc.Constraints) == 0 {
		return nil, &TaskParseError{Message: "no usable content found in task description"}
	}
	return tc, nil
}

func (tc *TaskConstraints) String() string {
	return fmt.Sprintf("TaskConstraints{description=%q, success=%v, constraints=%v}", tc.Description, tc.SuccessCriteria, tc.Constraints)
}
