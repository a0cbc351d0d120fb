package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danshapiro/actcore/internal/artifacts"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent run's manifest",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	artifactRoot := resolvedArtifactRoot()

	runs, err := artifacts.ListRuns(artifactRoot)
	if err != nil {
		return exitErrorf(1, "listing runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found under", artifactRoot)
		return nil
	}

	latest := runs[len(runs)-1]
	m, err := artifacts.ReadManifest(filepath.Join(latest.RunDir, "manifest.json"))
	if err != nil {
		return exitErrorf(1, "reading manifest for %s: %v", latest.RunID, err)
	}

	statusColor := color.New(color.FgGreen)
	switch m.Status {
	case artifacts.StatusFail:
		statusColor = color.New(color.FgYellow)
	case artifacts.StatusInfraError:
		statusColor = color.New(color.FgRed)
	}

	fmt.Printf("run:    %s\n", m.RunID)
	fmt.Printf("status: %s\n", statusColor.Sprint(string(m.Status)))
	fmt.Printf("commit: %s\n", m.CommitSHA)
	fmt.Printf("window: %s -> %s\n", m.TimestampStart, m.TimestampEnd)
	if latest.HasStuckReport {
		fmt.Println(color.YellowString("stuck report:"), filepath.Join(latest.RunDir, artifacts.StuckReportFilename))
	}
	for _, c := range m.CommandsExecuted {
		fmt.Printf("  [%3d] %-20s %s (%dms)\n", c.ExitCode, c.Name, c.Command, c.DurationMS)
	}
	return nil
}
