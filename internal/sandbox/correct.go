package sandbox

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// Generator is the generation backend the corrector consults for revised
// change sets. It is best-effort and network-fallible; any error or
// empty result triggers the deterministic heuristic fallback.
type Generator interface {
	// CorrectChanges requests a revised change set given the failing
	// changes, the error text, and the original intent.
	CorrectChanges(ctx context.Context, changes models.ChangeSet, errorMessage, prompt string) (models.ChangeSet, error)
}

// Corrector produces a revised change set in response to a classified
// failure, via the generation backend when available and a deterministic
// heuristic otherwise. It never propagates backend errors.
type Corrector struct {
	backend Generator
	logf    logFunc
}

// NewCorrector creates a corrector. backend may be nil, in which case
// only the heuristic path is used.
func NewCorrector(backend Generator) *Corrector {
	return &Corrector{backend: backend, logf: nopLog}
}

// SetLogger sets the destination for corrector warnings.
func (c *Corrector) SetLogger(logf func(format string, args ...interface{})) {
	if logf != nil {
		c.logf = logf
	}
}

// Correct returns a revised change set for the given failure. The
// backend's answer is adopted when it is non-empty and actually differs
// from the current set; otherwise the heuristic fix is applied.
func (c *Corrector) Correct(ctx context.Context, changes models.ChangeSet, errorMessage, prompt string) models.ChangeSet {
	if c.backend != nil {
		revised, err := c.backend.CorrectChanges(ctx, changes, errorMessage, prompt)
		if err != nil {
			c.logf("correction backend failed, using heuristic: %v", err)
		} else {
			revised, warnings := models.NormalizeChanges(revised)
			for _, warning := range warnings {
				c.logf("correction: %s", warning)
			}
			if len(revised) > 0 && !revised.Equal(changes) {
				return revised
			}
			c.logf("correction backend returned an empty or unchanged set, using heuristic")
		}
	}
	return c.HeuristicFix(changes)
}

// HeuristicFix applies the deterministic repair to every Python change
// in the set: lines following a with-block opener are re-indented into
// the block until a dedent boundary. Changes of other file kinds pass
// through unmodified.
func (c *Corrector) HeuristicFix(changes models.ChangeSet) models.ChangeSet {
	fixed := make(models.ChangeSet, len(changes))
	for i, change := range changes {
		fixed[i] = change
		if change.Action == models.ActionDelete {
			continue
		}
		if strings.ToLower(filepath.Ext(change.FilePath)) != ".py" {
			continue
		}
		fixed[i].Content = reindentWithBlocks(change.Content)
	}
	return fixed
}

// withOpenerRe matches a with-statement block opener, e.g.
// `with open("f") as f:` with an optional trailing comment.
var withOpenerRe = regexp.MustCompile(`^with\b.*:\s*(#.*)?$`)

// indentUnit is the indentation added to statements pulled into a block.
const indentUnit = "    "

// reindentWithBlocks repairs the common generated-code defect where
// statements meant to run inside a with-block were emitted at the
// opener's own indentation (or column 0), so the resource is used after
// its scope closed. Statements following a with-opener at an indent no
// deeper than the opener are pulled into the block until a dedent
// boundary (a new def/class/with/decorator or a main guard) is reached.
// Lines already indented deeper than the opener are left untouched.
func reindentWithBlocks(src string) string {
	lines := strings.Split(src, "\n")

	for i := 0; i < len(lines); i++ {
		stmt := strings.TrimLeft(lines[i], " \t")
		if !withOpenerRe.MatchString(stmt) {
			continue
		}
		openerIndent := len(lines[i]) - len(stmt)
		bodyIndent := strings.Repeat(" ", openerIndent) + indentUnit

		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			trimmed := strings.TrimLeft(lines[j], " \t")
			indent := len(lines[j]) - len(trimmed)
			if indent > openerIndent {
				continue
			}
			if dedentBoundary(trimmed) {
				break
			}
			lines[j] = bodyIndent + trimmed
		}
	}

	return strings.Join(lines, "\n")
}

// dedentBoundary reports whether a statement legitimately ends the
// with-block body rather than belonging inside it.
func dedentBoundary(stmt string) bool {
	boundaries := []string{"def ", "class ", "with ", "@", "if __name__"}
	for _, prefix := range boundaries {
		if strings.HasPrefix(stmt, prefix) {
			return true
		}
	}
	return false
}
