package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danshapiro/actcore/internal/artifacts"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <task description>",
	Short: "Re-run the debug loop on a task, reusing the existing artifact store and Scout cache",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResume,
}

// runResume is run with no state of its own: the Debug Loop is stateless
// across process invocations (spec.md §5, "Concurrency Model") and the
// Scout Cache (C14) and artifact history already persist everything a
// resumed attempt can reuse. It only confirms a prior artifact store
// exists before delegating to the same path as "run".
func runResume(cmd *cobra.Command, args []string) error {
	artifactRoot := resolvedArtifactRoot()
	runs, err := artifacts.ListRuns(artifactRoot)
	if err != nil {
		return exitErrorf(1, "listing prior runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no prior runs found under", artifactRoot, "- starting fresh")
	} else {
		fmt.Printf("resuming with %d prior run(s) and cached Scout reports under %s\n", len(runs), artifactRoot)
	}
	return runRun(cmd, args)
}
