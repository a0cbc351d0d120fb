package debugloop

import "fmt"

// HardStopError marks that the Debug Loop exhausted its absolute verify
// budget (TOTAL_VERIFY_LOOP_THRESHOLD) without a PASS. It never escapes
// Run; it is reified into the DONE_STUCK outcome.
type HardStopError struct {
	AttemptsMade int
	Threshold    int
}

func (e *HardStopError) Error() string {
	return fmt.Sprintf("hard stop: %d verify attempts reached threshold %d", e.AttemptsMade, e.Threshold)
}

// InfraSource names which component raised the error that terminated the
// loop in DONE_INFRA_ERROR.
type InfraSource string

const (
	SourceScoutA        InfraSource = "scout_a"
	SourceScoutB        InfraSource = "scout_b"
	SourceEditorBoundary InfraSource = "editor_boundary"
	SourceEditor        InfraSource = "editor"
	SourceVerifier      InfraSource = "verifier"
)
