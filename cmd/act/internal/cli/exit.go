package cli

import "fmt"

// ExitError carries a specific process exit code out of Execute. spec.md
// §6: 0 on DONE_SUCCESS (never an error), 2 on DONE_STUCK, 3 on
// DONE_INFRA_ERROR, 1 on a precheck failure before the loop ever starts.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

func exitErrorf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
