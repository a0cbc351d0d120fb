package debugloop

import (
	"fmt"
	"strings"
	"time"

	"github.com/danshapiro/actcore/internal/scout"
)

// HypothesisComposer synthesizes a short set of candidate root causes from
// the aggregated scout context when the loop gives up. Prose composition
// is explicitly out of the core's scope per spec.md §1 ("the success-
// summary and stuck-report composition... only their storage and triggers
// are in the core"); this interface is the seam the outer shell can
// replace with an LLM-backed composer. DefaultHypothesisComposer below is
// a deterministic fallback used when none is configured, so the core can
// always produce a report on its own.
type HypothesisComposer interface {
	Compose(task *TaskConstraints, scoutCtx *ScoutContext) ([]string, error)
}

// DefaultHypothesisComposer derives hypotheses mechanically from the scout
// context's risk zones and environment issues, without calling an LLM.
type DefaultHypothesisComposer struct{}

func (DefaultHypothesisComposer) Compose(task *TaskConstraints, scoutCtx *ScoutContext) ([]string, error) {
	var hyps []string

	if scoutCtx != nil {
		for _, rz := range stringsField(scoutCtx.ScoutA, "risk_zones") {
			hyps = append(hyps, fmt.Sprintf("the change touches a known risk zone: %s", rz))
			if len(hyps) >= 5 {
				break
			}
		}
		for _, issue := range stringsField(scoutCtx.ScoutB, "environment_issues") {
			if len(hyps) >= 5 {
				break
			}
			hyps = append(hyps, fmt.Sprintf("an environment issue may be blocking verification: %s", issue))
		}
	}

	if len(hyps) < 3 {
		hyps = append(hyps,
			"the implementation does not fully satisfy the task's success criteria",
			"the verification pipeline is exercising an edge case the edits did not account for",
			"the task description may be under-specified or ambiguous",
		)
	}
	if len(hyps) > 5 {
		hyps = hyps[:5]
	}
	return hyps, nil
}

func stringsField(report *scout.Report, key string) []string {
	if report == nil {
		return nil
	}
	raw, ok := report.Body[key]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// RenderStuckReport composes the markdown body of stuck_report.md per
// spec.md §4.10: the task, the full run_ids list, the last response's
// tail log excerpt, and the hypothesis set.
func RenderStuckReport(task *TaskConstraints, ls LoopState, hypotheses []string, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Stuck report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Task\n\n%s\n\n", task.Description)
	if len(task.SuccessCriteria) > 0 {
		fmt.Fprintf(&b, "### Success criteria\n\n")
		for _, c := range task.SuccessCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Verify attempts (%d)\n\n", len(ls.RunIDs))
	for _, id := range ls.RunIDs {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Last tail log\n\n```\n")
	if ls.LastResponse != nil {
		b.WriteString(ls.LastResponse.TailLog)
	}
	fmt.Fprintf(&b, "\n```\n\n")

	fmt.Fprintf(&b, "## Hypotheses\n\n")
	for i, h := range hypotheses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}
	return b.String()
}
