package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShimantoBhowmik/zen-code/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show recent pipeline runs",
	Long: `Display recent pipeline runs and their outcomes.

Without arguments, lists the most recent runs.
With a run ID, shows the full record for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Maximum number of runs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, err := state.OpenDefault()
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate run database: %w", err)
	}

	if len(args) == 1 {
		run, err := db.GetRun(args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		displayRun(run)
		return nil
	}

	runs, err := db.ListRuns(statusLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded. Run 'zencode run <repo-url> <request>' to start.")
		return nil
	}

	fmt.Println("Recent Runs:")
	for _, run := range runs {
		fmt.Printf("  %s  %s  %s  (%s ago)\n",
			run.ID,
			statusColor(run.Status).Sprintf("%-9s", run.Status),
			run.RepoURL,
			formatDuration(time.Since(run.CreatedAt)))
	}
	return nil
}

// displayRun prints the full record for one run.
func displayRun(run *state.Run) {
	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("  Repository: %s\n", run.RepoURL)
	fmt.Printf("  Request:    %s\n", run.Prompt)
	fmt.Printf("  Status:     %s\n", statusColor(run.Status).Sprint(run.Status))
	fmt.Printf("  Started:    %s ago\n", formatDuration(time.Since(run.CreatedAt)))
	if run.FinishedAt != nil {
		fmt.Printf("  Duration:   %s\n", formatDuration(run.FinishedAt.Sub(run.CreatedAt)))
	}
	if run.Iterations > 0 {
		fmt.Printf("  Iterations: %d\n", run.Iterations)
	}
	if run.Branch != "" {
		fmt.Printf("  Branch:     %s\n", run.Branch)
	}
	if run.PRURL != "" {
		fmt.Printf("  PR:         %s\n", run.PRURL)
	}
	if run.Feedback != "" {
		fmt.Printf("  Feedback:   %s\n", run.Feedback)
	}
}

// statusColor picks the display color for a run status.
func statusColor(status state.RunStatus) *color.Color {
	switch status {
	case state.RunSucceeded:
		return color.New(color.FgGreen)
	case state.RunFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
