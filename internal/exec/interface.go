// Package exec provides an interface for command execution.
package exec

import (
	"context"
	"time"
)

// CaptureSpec describes a single process invocation with captured output.
type CaptureSpec struct {
	// Dir is the working directory for the process. Empty means inherit.
	Dir string
	// Name is the program to run.
	Name string
	// Args are the program arguments.
	Args []string
	// Env is the environment for the process. Nil means a minimal
	// restricted environment rather than the parent's full environment.
	Env []string
	// Timeout is the hard wall-clock limit. Zero means no limit.
	// On expiry the process is killed and reaped before Capture returns.
	Timeout time.Duration
}

// CaptureResult holds the outcome of a captured invocation.
type CaptureResult struct {
	// Stdout is the process's standard output, verbatim.
	Stdout string
	// Stderr is the process's standard error, verbatim.
	Stderr string
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// TimedOut is true if the timeout expired and the process was killed.
	TimedOut bool
}

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking command execution in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// Capture executes a command with separate stdout/stderr capture and
	// an optional hard timeout. The spawned process is always reaped
	// before Capture returns, on both the normal and timeout paths.
	Capture(ctx context.Context, spec CaptureSpec) (CaptureResult, error)

	// LookPath reports whether the named program is available in PATH.
	LookPath(name string) bool
}
