package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	zexec "github.com/ShimantoBhowmik/zen-code/internal/exec"
	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// fakeRunner scripts process execution so harness tests need neither a
// Python interpreter nor real timeouts.
type fakeRunner struct {
	result   zexec.CaptureResult
	err      error
	captures []zexec.CaptureSpec
	missing  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ string, _ ...string) ([]byte, error) {
	return nil, nil
}

func (f *fakeRunner) Capture(_ context.Context, spec zexec.CaptureSpec) (zexec.CaptureResult, error) {
	f.captures = append(f.captures, spec)
	return f.result, f.err
}

func (f *fakeRunner) LookPath(name string) bool {
	return !f.missing[name]
}

func newTestHarness(t *testing.T, runner zexec.CommandRunner) (*Harness, *Workspace) {
	t.Helper()
	ws := NewWorkspace(filepath.Join(t.TempDir(), "ws"), "")
	if err := ws.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return NewHarness(ws, runner, NewClassifier()), ws
}

func TestValidatable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"script.py", true},
		{"page.html", true},
		{"page.htm", true},
		{"feed.xml", true},
		{"README.md", false},
		{"style.css", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := Validatable(tt.path); got != tt.want {
			t.Errorf("Validatable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHarness_AutoPassForNonValidatable(t *testing.T) {
	h, _ := newTestHarness(t, &fakeRunner{})

	result := h.Run(context.Background(), "notes.md", "")
	if !result.Success {
		t.Errorf("Run() on non-validatable file failed: %+v", result)
	}
}

func TestHarness_RunProgram(t *testing.T) {
	tests := []struct {
		name     string
		runner   *fakeRunner
		expected string
		success  bool
		category models.ErrorCategory
	}{
		{
			name:    "clean run",
			runner:  &fakeRunner{result: zexec.CaptureResult{Stdout: "Hello, World!\n"}},
			success: true,
		},
		{
			name:     "expected output present case-insensitively",
			runner:   &fakeRunner{result: zexec.CaptureResult{Stdout: "HELLO, WORLD!\n"}},
			expected: "hello, world!",
			success:  true,
		},
		{
			name:     "expected output missing",
			runner:   &fakeRunner{result: zexec.CaptureResult{Stdout: "something else\n"}},
			expected: "Hello, World!",
			success:  false,
			category: models.CategoryRuntime,
		},
		{
			name:     "timeout",
			runner:   &fakeRunner{result: zexec.CaptureResult{TimedOut: true, ExitCode: -1}},
			success:  false,
			category: models.CategoryTimeout,
		},
		{
			name: "nonzero exit classified",
			runner: &fakeRunner{result: zexec.CaptureResult{
				ExitCode: 1,
				Stderr:   "ModuleNotFoundError: No module named 'pandas'",
			}},
			success:  false,
			category: models.CategoryMissingDependency,
		},
		{
			name:     "no interpreter",
			runner:   &fakeRunner{missing: map[string]bool{"python3": true, "python": true}},
			success:  false,
			category: models.CategoryMissingDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHarness(t, tt.runner)

			result := h.Run(context.Background(), "script.py", tt.expected)
			if result.Success != tt.success {
				t.Errorf("Run() success = %v, want %v (%+v)", result.Success, tt.success, result)
			}
			if !tt.success && result.Category != tt.category {
				t.Errorf("Run() category = %v, want %v", result.Category, tt.category)
			}
		})
	}
}

func TestHarness_RunProgramSpec(t *testing.T) {
	runner := &fakeRunner{result: zexec.CaptureResult{Stdout: "ok\n"}}
	h, ws := newTestHarness(t, runner)

	h.Run(context.Background(), "script.py", "")

	if len(runner.captures) != 1 {
		t.Fatalf("captured %d invocations, want 1", len(runner.captures))
	}
	spec := runner.captures[0]
	if spec.Dir != ws.Root() {
		t.Errorf("spec.Dir = %q, want workspace root %q", spec.Dir, ws.Root())
	}
	if spec.Name != "python3" {
		t.Errorf("spec.Name = %q, want python3", spec.Name)
	}
	if spec.Timeout != ExecTimeout {
		t.Errorf("spec.Timeout = %v, want %v", spec.Timeout, ExecTimeout)
	}
}

func TestHarness_PythonFallback(t *testing.T) {
	runner := &fakeRunner{
		result:  zexec.CaptureResult{Stdout: "ok\n"},
		missing: map[string]bool{"python3": true},
	}
	h, _ := newTestHarness(t, runner)

	h.Run(context.Background(), "script.py", "")
	if len(runner.captures) != 1 || runner.captures[0].Name != "python" {
		t.Errorf("expected fallback to python, got %+v", runner.captures)
	}
}

func TestHarness_CheckMarkup(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		success bool
	}{
		{
			name:    "well formed html",
			file:    "page.html",
			content: "<!DOCTYPE html>\n<html>\n<body><p>hi</p></body>\n</html>\n",
			success: true,
		},
		{
			name:    "xml with prologue",
			file:    "feed.xml",
			content: "<?xml version=\"1.0\"?>\n<feed><entry/></feed>\n",
			success: true,
		},
		{
			name:    "missing closing tag",
			file:    "page.html",
			content: "<html>\n<body>unterminated\n",
			success: false,
		},
		{
			name:    "no root tag",
			file:    "page.html",
			content: "just text, no markup",
			success: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ws := newTestHarness(t, &fakeRunner{})
			path := filepath.Join(ws.Root(), tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write markup file: %v", err)
			}

			result := h.Run(context.Background(), tt.file, "")
			if result.Success != tt.success {
				t.Errorf("Run() success = %v, want %v: %s", result.Success, tt.success, result.Stderr)
			}
		})
	}
}

func TestHarness_CheckMarkupMissingFile(t *testing.T) {
	h, _ := newTestHarness(t, &fakeRunner{})

	result := h.Run(context.Background(), "absent.html", "")
	if result.Success {
		t.Error("Run() on an absent markup file should fail")
	}
	if result.Category != models.CategoryMissingFile {
		t.Errorf("category = %v, want %v", result.Category, models.CategoryMissingFile)
	}
	if !strings.Contains(result.Stderr, "absent.html") {
		t.Errorf("stderr %q does not name the file", result.Stderr)
	}
}
