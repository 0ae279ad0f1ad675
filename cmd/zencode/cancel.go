package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
	"github.com/ShimantoBhowmik/zen-code/internal/sandbox"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Request cancellation of the running pipeline",
	Long: `Drop a cancel marker for a pipeline running in another process.

The running pipeline checks for the marker between stages and aborts
the run without publishing anything. The marker is cleaned up when the
canceled run shuts down.`,
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sandboxes := sandbox.NewManager(cfg.Sandbox.Dir)
	signals, err := pipeline.NewSignalWatcher(sandboxes.Root())
	if err != nil {
		return fmt.Errorf("open signals directory: %w", err)
	}
	if err := signals.RequestCancel(); err != nil {
		return fmt.Errorf("write cancel marker: %w", err)
	}

	fmt.Println("Cancel requested.")
	return nil
}
