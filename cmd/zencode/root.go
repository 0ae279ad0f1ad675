package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckGitCLI verifies that the 'git' CLI is available in PATH.
// Returns an error with installation instructions if not found.
func CheckGitCLI() error {
	_, err := exec.LookPath("git")
	if err != nil {
		return fmt.Errorf("git CLI not found in PATH\n\n" +
			"zen-code clones and publishes repositories via the git CLI.\n\n" +
			"Install it from:\n" +
			"  https://git-scm.com/downloads")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "zencode",
	Short: "AI-assisted code change pipeline",
	Long: `zen-code turns a natural-language change request into a pull request.

Given a GitHub repository URL and a description of the change, it:
- Clones the repository into an isolated sandbox
- Analyzes the codebase and generates file edits via an LLM
- Validates the edits in a scratch workspace, iterating on failures
- Commits the validated edits to a new branch, pushes, and opens a PR

Changes that fail validation are never published.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(versionCmd)
}
