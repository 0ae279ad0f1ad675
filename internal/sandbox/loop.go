package sandbox

import (
	"context"
	"fmt"
	"path/filepath"

	zexec "github.com/ShimantoBhowmik/zen-code/internal/exec"
	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// MaxIterations is the fixed retry budget of the validation loop.
const MaxIterations = 3

// loopState names the states of the validation state machine. The loop
// always terminates in statePassed or stateExhausted.
type loopState int

const (
	stateAttempting loopState = iota
	statePassed
	stateExhausted
)

// Validator coordinates workspace, applier, harness, and corrector
// across a bounded number of iterations. It is the single authority
// deciding pass/fail; callers must not publish when the verdict is a
// failure.
//
// A Validator owns its workspace for the duration of a call and must not
// be shared across concurrent validation runs.
type Validator struct {
	workspace     *Workspace
	applier       *Applier
	harness       *Harness
	corrector     *Corrector
	maxIterations int
	logf          logFunc
}

// NewValidator wires the validation components around a workspace.
// backend may be nil; corrections then use only the heuristic path.
func NewValidator(ws *Workspace, runner zexec.CommandRunner, backend Generator) *Validator {
	classifier := NewClassifier()
	return &Validator{
		workspace:     ws,
		applier:       NewApplier(),
		harness:       NewHarness(ws, runner, classifier),
		corrector:     NewCorrector(backend),
		maxIterations: MaxIterations,
		logf:          nopLog,
	}
}

// SetLogger propagates a log destination to all components.
func (v *Validator) SetLogger(logf func(format string, args ...interface{})) {
	if logf == nil {
		return
	}
	v.logf = logf
	v.workspace.SetLogger(logf)
	v.applier.SetLogger(logf)
	v.corrector.SetLogger(logf)
}

// SetMaxIterations overrides the iteration budget. Used by tests.
func (v *Validator) SetMaxIterations(n int) {
	if n > 0 {
		v.maxIterations = n
	}
}

// Harness exposes the execution harness for timeout tuning in tests.
func (v *Validator) Harness() *Harness {
	return v.harness
}

// ValidateChanges runs the bounded validation loop over a candidate
// change set. It returns a verdict carrying pass/fail, the last error or
// a success message, and the final (possibly corrected) change set.
//
// Only unrecoverable setup failures return a non-nil error; execution
// and classification failures are captured as data and drive the loop.
func (v *Validator) ValidateChanges(ctx context.Context, changes models.ChangeSet, prompt string) (models.Verdict, error) {
	if err := v.workspace.Prepare(); err != nil {
		return models.Verdict{}, fmt.Errorf("prepare validation workspace: %w", err)
	}

	expected := ExtractExpectedOutput(prompt)
	if expected != "" {
		v.logf("expecting output fragment %q", expected)
	}

	current := changes
	lastError := ""
	state := stateAttempting

	for iteration := 1; state == stateAttempting; iteration++ {
		candidate := firstValidatable(current)
		if candidate == "" {
			return models.Verdict{
				Success:  true,
				Feedback: "No executable code to validate",
				Changes:  current,
			}, nil
		}

		// Re-seed sample data, then snapshot so this iteration's apply
		// can be fully undone before the next one.
		if err := v.workspace.Reset(); err != nil {
			return models.Verdict{}, fmt.Errorf("reset workspace: %w", err)
		}
		backups, err := v.workspace.snapshot()
		if err != nil {
			return models.Verdict{}, err
		}

		if _, err := v.applier.Apply(flattenToBasenames(current), v.workspace.Root()); err != nil {
			return models.Verdict{}, fmt.Errorf("apply candidate changes: %w", err)
		}

		result := v.harness.Run(ctx, candidate, expected)

		// The workspace must be residue-free before the next iteration
		// applies new changes; stale candidates would corrupt
		// classification.
		if err := v.workspace.restore(backups); err != nil {
			return models.Verdict{}, err
		}

		if result.Success {
			state = statePassed
			feedback := result.Stdout
			if feedback == "" {
				feedback = "Validation passed"
			}
			v.logf("iteration %d: passed", iteration)
			return models.Verdict{Success: true, Feedback: feedback, Changes: current, Iterations: iteration}, nil
		}

		lastError = failureFeedback(result)
		v.logf("iteration %d: failed (%s)", iteration, result.Category)

		if iteration == v.maxIterations {
			state = stateExhausted
			best := v.corrector.HeuristicFix(current)
			return models.Verdict{Success: false, Feedback: lastError, Changes: best, Iterations: iteration}, nil
		}

		current = v.corrector.Correct(ctx, current, lastError, prompt)
	}

	// Unreachable: the loop exits through statePassed or stateExhausted.
	return models.Verdict{Success: false, Feedback: lastError, Changes: current}, nil
}

// ApplyChanges composes the applier with the validation loop. When
// validation is enabled and fails, the returned verdict carries
// success=false and callers must refuse to publish; the best-effort
// changes are still written into targetDir so they can be inspected.
func (v *Validator) ApplyChanges(ctx context.Context, targetDir string, changes models.ChangeSet, prompt string, validate bool) (models.Verdict, []models.AppliedChange, error) {
	verdict := models.Verdict{
		Success:  true,
		Feedback: "Validation disabled",
		Changes:  changes,
	}

	if validate {
		var err error
		verdict, err = v.ValidateChanges(ctx, changes, prompt)
		if err != nil {
			return models.Verdict{}, nil, err
		}
	}

	applied, err := v.applier.Apply(verdict.Changes, targetDir)
	if err != nil {
		return verdict, applied, fmt.Errorf("apply changes to %s: %w", targetDir, err)
	}
	return verdict, applied, nil
}

// firstValidatable returns the basename of the first change the harness
// can validate: a runnable or markup file being created or modified.
// Empty means nothing to validate.
func firstValidatable(changes models.ChangeSet) string {
	for _, c := range changes {
		if c.Action == models.ActionDelete {
			continue
		}
		if Validatable(c.FilePath) {
			return filepath.Base(c.FilePath)
		}
	}
	return ""
}

// flattenToBasenames rewrites change paths to bare basenames so the
// candidate files land directly in the workspace root next to
// sample_data.
func flattenToBasenames(changes models.ChangeSet) models.ChangeSet {
	flat := make(models.ChangeSet, len(changes))
	for i, c := range changes {
		flat[i] = c
		flat[i].FilePath = filepath.Base(c.FilePath)
	}
	return flat
}

// failureFeedback renders an execution failure as the loop's feedback
// string: the stderr verbatim, the category, and the hint when present.
func failureFeedback(result models.ExecutionResult) string {
	msg := result.Stderr
	if msg == "" {
		msg = "execution failed with no error output"
	}
	feedback := fmt.Sprintf("[%s] %s", result.Category, msg)
	if result.Hint != "" {
		feedback += "\nHint: " + result.Hint
	}
	return feedback
}
