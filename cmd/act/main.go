// Command act is the thin CLI front end for the core: it performs the
// startup precheck, loads the run configuration, constructs the Debug
// Loop's dependencies, runs it to a terminal state, and maps that state to
// process exit codes. Its own flag parsing, env-loading precedence, and
// output prose carry no invariants beyond "call the core correctly" —
// spec.md §1 names the CLI front end itself as out of scope.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danshapiro/actcore/cmd/act/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ee *cli.ExitError
		if errors.As(err, &ee) {
			os.Exit(ee.Code)
		}
		os.Exit(1)
	}
}
