package models

// ErrorCategory classifies an execution failure into a known failure
// signature. Categories drive the correction strategy's choice of fix.
type ErrorCategory string

const (
	// CategoryTimeout indicates the candidate exceeded the execution timeout.
	CategoryTimeout ErrorCategory = "timeout"
	// CategoryResourceClosed indicates a resource was used after its scope closed,
	// e.g. an I/O operation on a file whose with-block already ended.
	CategoryResourceClosed ErrorCategory = "resource_closed"
	// CategoryMissingFile indicates the candidate referenced a file that does not exist.
	CategoryMissingFile ErrorCategory = "missing_file"
	// CategoryMissingDependency indicates an import or module could not be resolved.
	CategoryMissingDependency ErrorCategory = "missing_dependency"
	// CategoryIndentation indicates a block structure / indentation error.
	CategoryIndentation ErrorCategory = "indentation"
	// CategoryPermission indicates the candidate lacked filesystem permissions.
	CategoryPermission ErrorCategory = "permission"
	// CategoryRuntime is the generic category for unclassified failures.
	CategoryRuntime ErrorCategory = "runtime"
)

// ExecutionResult is the outcome of running a single candidate file in
// the validation workspace. It is produced fresh each iteration and never
// persisted beyond the loop's own decision-making.
type ExecutionResult struct {
	// Success is true if the candidate ran cleanly (and produced the
	// expected output, when one is required).
	Success bool
	// Stdout is the captured standard output, verbatim.
	Stdout string
	// Stderr is the captured standard error, verbatim.
	Stderr string
	// Category classifies the failure. Empty on success.
	Category ErrorCategory
	// Hint is an actionable suggestion derived from the failure
	// signature. Empty when no rule matched.
	Hint string
}

// Verdict is the terminal output of the validation loop and the only
// artifact it exposes to callers.
type Verdict struct {
	// Success is true if a candidate passed within the iteration budget.
	Success bool
	// Feedback is the last error message, or a success message.
	Feedback string
	// Changes is the final change set: the passing set on success, or
	// the best-effort corrected set on budget exhaustion.
	Changes ChangeSet
	// Iterations is how many validation iterations ran. Zero when
	// validation was skipped entirely.
	Iterations int
}
