package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	zexec "github.com/ShimantoBhowmik/zen-code/internal/exec"
	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// ExecTimeout is the hard wall-clock limit for a single candidate run.
const ExecTimeout = 15 * time.Second

// runnableExtensions are file types the harness executes as programs.
var runnableExtensions = map[string]bool{
	".py": true,
}

// markupExtensions are file types checked for structural well-formedness
// instead of being executed.
var markupExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".xml":  true,
}

// Harness runs one candidate file inside a workspace and classifies the
// outcome.
type Harness struct {
	workspace  *Workspace
	runner     zexec.CommandRunner
	classifier *Classifier
	timeout    time.Duration
}

// NewHarness creates a harness bound to a workspace. The runner executes
// candidate programs; the classifier labels failures.
func NewHarness(ws *Workspace, runner zexec.CommandRunner, classifier *Classifier) *Harness {
	return &Harness{
		workspace:  ws,
		runner:     runner,
		classifier: classifier,
		timeout:    ExecTimeout,
	}
}

// SetTimeout overrides the execution timeout. Used by tests.
func (h *Harness) SetTimeout(d time.Duration) {
	h.timeout = d
}

// Validatable reports whether the harness has any way to check the file:
// either it is runnable or it is a markup file with structural checks.
func Validatable(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return runnableExtensions[ext] || markupExtensions[ext]
}

// Run validates a single candidate file living in the workspace root.
// Dispatch is by extension: runnable files are executed under the
// timeout, markup files get well-formedness checks, and anything else
// passes automatically. expectedOutput, when non-empty, must appear in
// stdout (case-insensitive) for a run to count as a success.
func (h *Harness) Run(ctx context.Context, fileName, expectedOutput string) models.ExecutionResult {
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case runnableExtensions[ext]:
		return h.runProgram(ctx, fileName, expectedOutput)
	case markupExtensions[ext]:
		return h.checkMarkup(fileName)
	default:
		return models.ExecutionResult{
			Success: true,
			Stdout:  fmt.Sprintf("%s: nothing to validate", fileName),
		}
	}
}

// runProgram executes a candidate program in the workspace directory
// with output capture and the hard timeout.
func (h *Harness) runProgram(ctx context.Context, fileName, expectedOutput string) models.ExecutionResult {
	interpreter := h.pythonInterpreter()
	if interpreter == "" {
		return models.ExecutionResult{
			Success: false,
			Stderr:  "no python interpreter found in PATH",
			Category: models.CategoryMissingDependency,
			Hint:     "Install python3 or ensure it is on PATH to validate Python candidates.",
		}
	}

	capture, err := h.runner.Capture(ctx, zexec.CaptureSpec{
		Dir:     h.workspace.Root(),
		Name:    interpreter,
		Args:    []string{fileName},
		Timeout: h.timeout,
	})
	if err != nil {
		return models.ExecutionResult{
			Success:  false,
			Stderr:   err.Error(),
			Category: models.CategoryRuntime,
		}
	}

	result := models.ExecutionResult{
		Stdout: capture.Stdout,
		Stderr: capture.Stderr,
	}

	if capture.TimedOut {
		result.Category = models.CategoryTimeout
		result.Hint = fmt.Sprintf("Execution exceeded the %s limit and was terminated. Remove blocking calls, infinite loops, or long sleeps.", h.timeout)
		return result
	}

	if capture.ExitCode != 0 {
		result.Category, result.Hint = h.classifier.Classify(capture.Stderr)
		return result
	}

	if expectedOutput != "" && !strings.Contains(strings.ToLower(capture.Stdout), strings.ToLower(expectedOutput)) {
		result.Category = models.CategoryRuntime
		result.Stderr = fmt.Sprintf("expected output %q not found in stdout", expectedOutput)
		result.Hint = fmt.Sprintf("The program ran but did not print %q as the request asked.", expectedOutput)
		return result
	}

	result.Success = true
	return result
}

// pythonInterpreter picks the available python binary, preferring python3.
func (h *Harness) pythonInterpreter() string {
	if h.runner.LookPath("python3") {
		return "python3"
	}
	if h.runner.LookPath("python") {
		return "python"
	}
	return ""
}

// checkMarkup performs a structural well-formedness check: the file must
// open with a root tag and contain the matching closing tag.
func (h *Harness) checkMarkup(fileName string) models.ExecutionResult {
	data, err := os.ReadFile(filepath.Join(h.workspace.Root(), fileName))
	if err != nil {
		return models.ExecutionResult{
			Success:  false,
			Stderr:   fmt.Sprintf("read %s: %v", fileName, err),
			Category: models.CategoryMissingFile,
		}
	}

	content := strings.TrimSpace(string(data))
	root := rootTag(content)
	if root == "" {
		return models.ExecutionResult{
			Success:  false,
			Stderr:   fmt.Sprintf("%s: no opening root tag found", fileName),
			Category: models.CategoryRuntime,
			Hint:     "Markup files must open with a root element such as <html> or a document root tag.",
		}
	}
	if !strings.Contains(strings.ToLower(content), "</"+root+">") {
		return models.ExecutionResult{
			Success:  false,
			Stderr:   fmt.Sprintf("%s: missing closing tag </%s>", fileName, root),
			Category: models.CategoryRuntime,
			Hint:     fmt.Sprintf("Add the closing </%s> tag to complete the document.", root),
		}
	}

	return models.ExecutionResult{
		Success: true,
		Stdout:  fmt.Sprintf("%s: markup structure ok", fileName),
	}
}

// rootTag extracts the first element name of a markup document, skipping
// doctype and processing-instruction prologue.
func rootTag(content string) string {
	lower := strings.ToLower(content)
	for i := 0; i < len(lower); {
		start := strings.Index(lower[i:], "<")
		if start == -1 {
			return ""
		}
		start += i
		rest := lower[start+1:]
		if strings.HasPrefix(rest, "!") || strings.HasPrefix(rest, "?") {
			i = start + 1
			continue
		}
		end := strings.IndexAny(rest, " >\n\t/")
		if end <= 0 {
			return ""
		}
		return rest[:end]
	}
	return ""
}
