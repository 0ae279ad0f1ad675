package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// Applier writes a change set into a target directory.
type Applier struct {
	logf logFunc
}

// NewApplier creates a new Applier.
func NewApplier() *Applier {
	return &Applier{logf: nopLog}
}

// SetLogger sets the destination for applier warnings.
func (a *Applier) SetLogger(logf func(format string, args ...interface{})) {
	if logf != nil {
		a.logf = logf
	}
}

// Apply writes each change into targetDir and returns the successfully
// applied entries in input order. Entries missing an action or a file
// path are dropped; NormalizeChanges surfaces those upstream, so here
// the drop is only logged. Deleting an absent file is logged, not an
// error. A write failure aborts with the entries applied so far.
func (a *Applier) Apply(changes models.ChangeSet, targetDir string) ([]models.AppliedChange, error) {
	applied := make([]models.AppliedChange, 0, len(changes))

	for _, change := range changes {
		if !change.Action.Valid() || change.FilePath == "" {
			a.logf("dropping malformed change entry: action=%q path=%q", change.Action, change.FilePath)
			continue
		}

		target := filepath.Join(targetDir, change.FilePath)

		switch change.Action {
		case models.ActionCreate, models.ActionModify:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return applied, fmt.Errorf("create parent dir for %s: %w", change.FilePath, err)
			}
			if change.Action == models.ActionModify {
				if err := backupIfExists(target); err != nil {
					return applied, fmt.Errorf("backup %s: %w", change.FilePath, err)
				}
			}
			if err := os.WriteFile(target, []byte(change.Content), 0644); err != nil {
				return applied, fmt.Errorf("write %s: %w", change.FilePath, err)
			}

		case models.ActionDelete:
			if err := os.Remove(target); err != nil {
				if os.IsNotExist(err) {
					a.logf("delete target %s does not exist, skipping", change.FilePath)
					continue
				}
				return applied, fmt.Errorf("delete %s: %w", change.FilePath, err)
			}
		}

		applied = append(applied, models.AppliedChange{Action: change.Action, FilePath: change.FilePath})
	}

	return applied, nil
}

// backupIfExists writes a sibling .backup copy of an existing file
// before it is overwritten.
func backupIfExists(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".backup", data, 0644)
}
