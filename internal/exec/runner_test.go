package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Capture_SeparatesStreams(t *testing.T) {
	r := NewRunner()

	result, err := r.Capture(context.Background(), CaptureSpec{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if !strings.Contains(result.Stdout, "out") {
		t.Errorf("stdout = %q, want to contain %q", result.Stdout, "out")
	}
	if !strings.Contains(result.Stderr, "err") {
		t.Errorf("stderr = %q, want to contain %q", result.Stderr, "err")
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
}

func TestExecRunner_Capture_NonZeroExit(t *testing.T) {
	r := NewRunner()

	result, err := r.Capture(context.Background(), CaptureSpec{
		Name: "sh",
		Args: []string{"-c", "exit 3"},
	})
	if err != nil {
		t.Fatalf("Capture() error = %v, want nil for non-zero exit", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("TimedOut = true for a plain non-zero exit")
	}
}

func TestExecRunner_Capture_KillsOnTimeout(t *testing.T) {
	r := NewRunner()

	start := time.Now()
	result, err := r.Capture(context.Background(), CaptureSpec{
		Name:    "sleep",
		Args:    []string{"20"},
		Timeout: 500 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if !result.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	// Must return near the timeout, not near the sleep duration.
	if elapsed > 5*time.Second {
		t.Errorf("Capture returned after %v, expected ~500ms", elapsed)
	}
}

func TestExecRunner_LookPath(t *testing.T) {
	r := NewRunner()

	if !r.LookPath("sh") {
		t.Error("LookPath(sh) = false, want true")
	}
	if r.LookPath("definitely-not-a-real-binary-zen") {
		t.Error("LookPath(nonexistent) = true, want false")
	}
}
