package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dt-pm-tools/issuedata/internal/filter"
	"github.com/dt-pm-tools/issuedata/internal/github"
	"github.com/dt-pm-tools/issuedata/internal/logging"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Issue label operations",
}

var labelSetCmd = &cobra.Command{
	Use:   "set <issue-number> [labels]",
	Short: "Replace the labels of an issue",
	Long: `Replaces every label of an issue with the given comma-separated list, for
example to mark a submission as reviewed:

  issuedata label set 42 "blog, 1.2.0"

An empty list removes all labels. The update is best-effort: a failure is
logged and does not fail the command.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number <= 0 {
			return fmt.Errorf("invalid issue number %q", args[0])
		}

		var labels []string
		if len(args) > 1 {
			labels = filter.ParseList(args[1])
		}

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

		if err := client.SetLabels(cmd.Context(), number, labels); err != nil {
			switch {
			case github.IsNotFound(err):
				logger.Warn(fmt.Sprintf("Failed to set labels on issue #%d: issue not found in %s", number, cfg.Repository), "error", err)
			case github.IsUnauthorized(err):
				logger.Warn(fmt.Sprintf("Failed to set labels on issue #%d: token rejected", number), "error", err)
			default:
				logger.Warn(fmt.Sprintf("Failed to set labels on issue #%d", number), "error", err)
			}
			return nil
		}

		logger.Info(fmt.Sprintf("Set labels of issue #%d to %v", number, labels))
		return nil
	},
}

func init() {
	labelSetCmd.Flags().String("repository", "", "repository as owner/name (default $GITHUB_REPOSITORY)")
	labelSetCmd.Flags().String("github-api-url", "", "GitHub API base URL for GitHub Enterprise (default $GITHUB_API_URL)")
	labelCmd.AddCommand(labelSetCmd)
	rootCmd.AddCommand(labelCmd)
}
