package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/ShimantoBhowmik/zen-code/internal/sandbox"
)

var cleanupOlderThan time.Duration

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale sandbox directories",
	Long: `Remove leftover sandbox clones and workspaces.

Sandboxes are cleaned up automatically when a run finishes, but a crash
or a killed process can leave directories behind. This command removes
sandbox entries older than the given age.

Examples:
  zencode cleanup                     # Remove sandboxes older than 24h
  zencode cleanup --older-than 1h     # Remove sandboxes older than 1h
  zencode cleanup --older-than 0s     # Remove all sandboxes`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 24*time.Hour, "Minimum age of sandboxes to remove")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sandboxes := sandbox.NewManager(cfg.Sandbox.Dir)
	removed, err := sandboxes.CleanupStale(cleanupOlderThan)
	if err != nil {
		return fmt.Errorf("cleanup sandboxes: %w", err)
	}

	if removed == 0 {
		fmt.Println("No stale sandboxes found.")
		return nil
	}
	fmt.Printf("Removed %d stale sandbox entr%s.\n", removed, pluralSuffix(removed, "y", "ies"))
	return nil
}

func pluralSuffix(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
