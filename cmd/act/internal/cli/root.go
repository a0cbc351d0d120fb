// Package cli is act's cobra command tree: run, status, resume. Flag
// binding is layered over a .act.yaml file and environment variables via
// viper, grounded on daydemir-ralph's internal/cli/root.go +
// internal/config/config.go layering pattern.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	flagConfig   string
	flagRepo     string
	flagArtifact string
)

var rootCmd = &cobra.Command{
	Use:   "act",
	Short: "A bounded, sandbox-verified coding-agent debug loop",
	Long: `act accepts a natural-language engineering task for a repository and, in
a bounded iterative loop, runs read-only Scout analysts, edits the working
tree, verifies the result in an isolated container sandbox, and reports
success, a stuck report, or an infrastructure error.`,
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default: .act.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "act.yaml", "run configuration path (steps, image, budgets)")
	rootCmd.PersistentFlags().StringVar(&flagRepo, "repo", ".", "repository working tree root")
	rootCmd.PersistentFlags().StringVar(&flagArtifact, "artifact-root", ".act", "artifact store root")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
	_ = viper.BindPFlag("artifact_root", rootCmd.PersistentFlags().Lookup("artifact-root"))

	rootCmd.AddCommand(runCmd, statusCmd, resumeCmd)
}

func initViper() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".act")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("ACT")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "warning: failed to read config file:", err)
		}
	}
}

// Execute runs the command tree and returns an error to main, which maps
// it to a process exit code via ExitError.
func Execute() error {
	return rootCmd.Execute()
}

func resolvedConfigPath() string {
	if v := viper.GetString("config"); v != "" {
		return v
	}
	return flagConfig
}

func resolvedRepoRoot() string {
	if v := viper.GetString("repo"); v != "" {
		return v
	}
	return flagRepo
}

func resolvedArtifactRoot() string {
	if v := viper.GetString("artifact_root"); v != "" {
		return v
	}
	return flagArtifact
}

