package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/issuedata/internal/filter"
	"github.com/dt-pm-tools/issuedata/internal/github"
	"github.com/dt-pm-tools/issuedata/internal/icon"
	"github.com/dt-pm-tools/issuedata/internal/logging"
	"github.com/dt-pm-tools/issuedata/internal/output"
	"github.com/dt-pm-tools/issuedata/internal/pipeline"
	"github.com/dt-pm-tools/issuedata/internal/sorter"
)

var buildDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the data file from open issues",
	Long: `Lists the open issues of the repository, drops issues carrying an excluded
label, extracts the first ` + "```json" + ` block of every remaining issue, resolves
its icon and writes the sorted result to the data path (relative to --dir,
default the working directory).

Issues without a usable JSON block are skipped. A failure to list issues
makes the command fail. A failure to write the file is logged and the
command still succeeds, without printing a summary.

Sort strategies: created-desc, created-asc, updated-desc, updated-asc,
posts-desc, or anything else (e.g. "version") to sort by the semantic version
label, highest first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))

		owner, repo, err := cfg.RepoParts()
		if err != nil {
			return err
		}
		client, err := github.NewClient(cmd.Context(), cfg.GitHubToken, owner, repo, cfg.GitHubAPIURL)
		if err != nil {
			return fmt.Errorf("creating GitHub client: %w", err)
		}

		timeout, err := cfg.IconTimeoutDuration()
		if err != nil {
			return err
		}
		resolver := icon.NewResolver(
			icon.WithProbe(cfg.IconProbe),
			icon.WithTimeout(timeout),
			icon.WithLogger(logger),
		)

		dir := buildDir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return fmt.Errorf("resolving working directory: %w", err)
			}
		}

		driver := pipeline.NewDriver(client, output.NewFileSink(cfg.DataFormat), resolver, pipeline.Options{
			Version:       cfg.DataVersion,
			OutputPath:    cfg.OutputPath(dir),
			Strategy:      sorter.ParseStrategy(cfg.Sort),
			ExcludeLabels: filter.ParseList(cfg.ExcludeLabels),
			HideLabels:    filter.ParseList(cfg.HideLabels),
		}, logger)

		res, err := driver.Run(cmd.Context())
		if errors.Is(err, pipeline.ErrWriteFailed) {
			return nil
		}
		if err != nil {
			// Already logged by the driver.
			cmd.SilenceErrors = true
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", res.Emitted, res.Path)
		return nil
	},
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildDir, "dir", "", "directory the data path is resolved against (default is the working directory)")
	f.String("repository", "", "repository as owner/name (default $GITHUB_REPOSITORY)")
	f.String("github-api-url", "", "GitHub API base URL for GitHub Enterprise (default $GITHUB_API_URL)")
	f.String("data-version", "", "version tag written to the data file (default v2)")
	f.String("data-path", "", "output path, relative to --dir (default /v2/data.json)")
	f.String("data-format", "", "output format: json or yaml (default by file extension)")
	f.String("sort", "", "sort strategy (default created-desc)")
	f.String("exclude-labels", "", "comma-separated labels whose issues are skipped")
	f.String("hide-labels", "", "comma-separated labels removed from the output")
	f.Bool("icon-probe", true, "check icon URLs with a HEAD request")
	f.String("icon-timeout", "", "timeout of a single icon check (default 5s)")
	f.String("log-level", "", "debug, info, warn or error (default info)")
	rootCmd.AddCommand(buildCmd)
}
