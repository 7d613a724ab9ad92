package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dt-pm-tools/issuedata/internal/config"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "issuedata",
	Short: "Build a JSON data file from the JSON blocks embedded in GitHub issues",
	Long: `Collects the open issues of a repository, extracts the JSON block each author
embedded in the issue description, and writes all of them, enriched with the
issue number, labels and a verified icon URL, to a single sorted data file.

Typically run from a GitHub Actions workflow, where inputs arrive as INPUT_*
environment variables and GITHUB_TOKEN / GITHUB_REPOSITORY are set.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultFile+")")
}

// loadConfig loads and validates configuration, applying any flags the
// command defines for config keys.
func loadConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w\nRun 'issuedata config' to set up credentials", err)
	}
	return cfg, nil
}
