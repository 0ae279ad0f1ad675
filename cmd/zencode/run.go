package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShimantoBhowmik/zen-code/internal/agent"
	"github.com/ShimantoBhowmik/zen-code/internal/config"
	"github.com/ShimantoBhowmik/zen-code/internal/git"
	"github.com/ShimantoBhowmik/zen-code/internal/pipeline"
	"github.com/ShimantoBhowmik/zen-code/internal/progress"
	"github.com/ShimantoBhowmik/zen-code/internal/sandbox"
	"github.com/ShimantoBhowmik/zen-code/internal/state"
)

var (
	runBranch     string
	runModel      string
	runDryRun     bool
	runNoValidate bool
	runHeadless   bool
	runDebugLog   string
)

var runCmd = &cobra.Command{
	Use:   "run <repo-url> <change request...>",
	Short: "Turn a change request into a pull request",
	Long: `Run the full change pipeline against a GitHub repository.

The repository is cloned into a sandbox, the change request is turned
into file edits by the LLM, the edits are validated in a scratch
workspace (iterating on failures), and a validated result is committed
to a new branch, pushed, and opened as a pull request.

Edits that still fail validation after the iteration budget are never
published; the run reports the failure instead.

Examples:
  zencode run https://github.com/me/demo "add a --verbose flag"
  zencode run https://github.com/me/demo "fix the CSV parser" --dry-run
  zencode run git@github.com:me/demo.git "rename util to helpers" --branch rename-util`,
	Args: cobra.MinimumNArgs(2),
	RunE: runChange,
}

func init() {
	runCmd.Flags().StringVar(&runBranch, "branch", "", "Branch name for the change (default: zen-code-<timestamp>)")
	runCmd.Flags().StringVar(&runModel, "model", "", "Override the configured LLM model")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Generate changes but do not apply or publish them")
	runCmd.Flags().BoolVar(&runNoValidate, "no-validate", false, "Skip sandbox validation before publishing")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Plain line output instead of the live display")
	runCmd.Flags().StringVar(&runDebugLog, "debug-log", "", "Write a debug log to this path")
}

func runChange(cmd *cobra.Command, args []string) error {
	if err := CheckGitCLI(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	model := cfg.Anthropic.Model
	if runModel != "" {
		model = runModel
	}

	client, err := agent.NewClient(agent.ClientConfig{
		Model:         anthropic.Model(model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	sandboxes := sandbox.NewManager(cfg.Sandbox.Dir)
	if cfg.Sandbox.MaxRepoSizeMB > 0 {
		sandboxes.SetMaxRepoSizeMB(cfg.Sandbox.MaxRepoSizeMB)
	}

	store, err := state.OpenDefault()
	if err != nil {
		return fmt.Errorf("open run database: %w", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate run database: %w", err)
	}

	signals, err := pipeline.NewSignalWatcher(sandboxes.Root())
	if err != nil {
		return fmt.Errorf("set up signal watcher: %w", err)
	}
	defer signals.Close()

	logPath := runDebugLog
	if logPath == "" {
		logPath = cfg.Debug.LogPath
	}
	logger, err := pipeline.NewDebugLogger(logPath)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logger.Close()

	emitter := pipeline.NewEmitter(100)
	p := pipeline.New(pipeline.Deps{
		Git:         git.NewRunner(""),
		Sandboxes:   sandboxes,
		Backend:     agent.NewAgent(client),
		Store:       store,
		Emitter:     emitter,
		Signals:     signals,
		Logger:      logger,
		GitHubToken: cfg.GitHub.Token,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		RepoURL:  args[0],
		Prompt:   strings.Join(args[1:], " "),
		Branch:   runBranch,
		Model:    model,
		DryRun:   runDryRun,
		Validate: cfg.Validation.Enabled && !runNoValidate,
	}

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, runErr := p.Run(ctx, opts)
		emitter.Close()
		done <- outcome{result, runErr}
	}()

	if runHeadless || !stdoutIsTerminal() {
		progress.NewPrinter(os.Stdout).Consume(emitter.Events())
	} else {
		if _, err := tea.NewProgram(progress.NewModel(emitter.Events())).Run(); err != nil {
			// Terminal setup failed; drain the stream as plain lines.
			progress.NewPrinter(os.Stdout).Consume(emitter.Events())
		}
	}

	out := <-done
	return reportOutcome(out.result, out.err)
}

// reportOutcome prints the run summary and maps failures to exit errors.
func reportOutcome(result *pipeline.Result, runErr error) error {
	if runErr != nil {
		if errors.Is(runErr, pipeline.ErrCanceled) || errors.Is(runErr, context.Canceled) {
			color.Yellow("Run canceled.")
			return nil
		}
		return runErr
	}

	if result.DryRun {
		color.Green("Dry run: %d change(s) proposed", len(result.Changes))
		for _, line := range result.Changes.Summary() {
			fmt.Printf("  %s\n", line)
		}
		return nil
	}

	if !result.Success {
		color.Red("Validation failed after %d iteration(s); nothing was published.", result.Verdict.Iterations)
		if result.Verdict.Feedback != "" {
			fmt.Println(result.Verdict.Feedback)
		}
		return fmt.Errorf("validation failed")
	}

	color.Green("Change published.")
	fmt.Printf("  Branch: %s\n", result.Branch)
	fmt.Printf("  Commit: %s\n", result.CommitHash)
	if result.PRURL != "" {
		fmt.Printf("  PR:     %s\n", result.PRURL)
	}
	return nil
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
func stdoutIsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
