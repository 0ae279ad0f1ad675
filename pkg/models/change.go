// Package models defines the core data types shared across zen-code.
package models

import (
	"fmt"
	"path"
	"strings"
)

// Action represents the kind of edit a change performs.
type Action string

const (
	// ActionCreate writes a new file.
	ActionCreate Action = "create"
	// ActionModify overwrites an existing file with new content.
	ActionModify Action = "modify"
	// ActionDelete removes a file.
	ActionDelete Action = "delete"
)

// Valid returns true if the action is a known value.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete:
		return true
	default:
		return false
	}
}

// Change is a single file-level edit instruction produced by the
// generation backend.
type Change struct {
	// Action is the kind of edit (create, modify, delete).
	Action Action `json:"action"`
	// FilePath is the repository-rooted relative path of the target file.
	FilePath string `json:"file_path"`
	// Content is the full file text. Empty for delete.
	Content string `json:"content,omitempty"`
	// Description explains what this change does.
	Description string `json:"description,omitempty"`
}

// ChangeSet is an ordered collection of changes. A ChangeSet is never
// mutated in place; the validation loop replaces it wholesale when a
// correction supersedes it.
type ChangeSet []Change

// Equal reports whether two change sets are identical entry for entry.
func (cs ChangeSet) Equal(other ChangeSet) bool {
	if len(cs) != len(other) {
		return false
	}
	for i := range cs {
		if cs[i] != other[i] {
			return false
		}
	}
	return true
}

// Summary returns a one-line-per-change description, used in commit
// messages and PR bodies.
func (cs ChangeSet) Summary() []string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, AppliedChange{Action: c.Action, FilePath: c.FilePath}.String())
	}
	return lines
}

// NormalizeChanges validates a raw change set at the boundary with the
// generation backend. Malformed entries are dropped rather than rejected,
// matching the lenient contract with the backend, but every drop is
// surfaced as a warning so data loss is visible to the caller.
//
// Paths are normalized: leading "./" stripped, redundant separators
// cleaned. Entries with an empty path, an absolute path, a path escaping
// the repository root, or an unknown action are dropped.
func NormalizeChanges(raw ChangeSet) (ChangeSet, []string) {
	normalized := make(ChangeSet, 0, len(raw))
	var warnings []string

	for i, c := range raw {
		if !c.Action.Valid() {
			warnings = append(warnings, fmt.Sprintf("change %d: unknown action %q, dropped", i, c.Action))
			continue
		}
		p := strings.TrimSpace(c.FilePath)
		if p == "" {
			warnings = append(warnings, fmt.Sprintf("change %d: empty file path, dropped", i))
			continue
		}
		if strings.HasPrefix(p, "/") {
			warnings = append(warnings, fmt.Sprintf("change %d: absolute path %q, dropped", i, p))
			continue
		}
		p = path.Clean(strings.TrimPrefix(p, "./"))
		if p == "." || p == ".." || strings.HasPrefix(p, "../") {
			warnings = append(warnings, fmt.Sprintf("change %d: path %q escapes repository root, dropped", i, c.FilePath))
			continue
		}
		c.FilePath = p
		normalized = append(normalized, c)
	}

	return normalized, warnings
}

// AppliedChange records one change that the applier successfully wrote.
type AppliedChange struct {
	// Action is the edit that was performed.
	Action Action `json:"action"`
	// FilePath is the path the change targeted.
	FilePath string `json:"file_path"`
}

// String returns a human-readable form, e.g. "Created: main.py".
func (a AppliedChange) String() string {
	switch a.Action {
	case ActionCreate:
		return "Created: " + a.FilePath
	case ActionModify:
		return "Modified: " + a.FilePath
	case ActionDelete:
		return "Deleted: " + a.FilePath
	default:
		return string(a.Action) + ": " + a.FilePath
	}
}
