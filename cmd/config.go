package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dt-pm-tools/issuedata/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure repository and GitHub credentials",
	Long:  `Interactively set the repository, GitHub token and output path. Settings are saved to ./` + config.DefaultFile + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		// Load existing config for defaults
		existing, _ := config.Load(cfgFile, nil)

		repository := prompt(reader, "Repository (owner/name)", existing.Repository)
		dataPath := prompt(reader, "Data path", existing.DataPath)
		sortBy := prompt(reader, "Sort (created-desc, created-asc, updated-desc, updated-asc, posts-desc, version)", existing.Sort)

		// Token (masked input)
		fmt.Print("GitHub token (input hidden, empty keeps current): ")
		tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // newline after hidden input
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token := strings.TrimSpace(string(tokenBytes))
		if token == "" {
			token = existing.GitHubToken
		}

		cfg := existing
		cfg.Repository = repository
		cfg.DataPath = dataPath
		cfg.Sort = sortBy
		cfg.GitHubToken = token

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}

		if err := config.Save(cfg, path); err != nil {
			return err
		}

		fmt.Printf("Configuration saved to %s\n", path)
		return nil
	},
}

// prompt asks for a value, keeping current when the answer is empty.
func prompt(reader *bufio.Reader, label, current string) string {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return current
	}
	return answer
}

func init() {
	rootCmd.AddCommand(configCmd)
}
