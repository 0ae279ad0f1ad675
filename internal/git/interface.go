// Package git provides an interface for git operations.
package git

import "context"

// CloneOperations defines the interface for obtaining a working copy.
type CloneOperations interface {
	// Clone performs a shallow, single-branch clone of repoURL into dest.
	Clone(ctx context.Context, repoURL, dest string) error
}

// BranchOperations defines the interface for git branch operations.
type BranchOperations interface {
	// CurrentBranch returns the name of the current branch.
	CurrentBranch() (string, error)
	// CreateAndCheckoutBranch creates and switches to a new branch (git checkout -b).
	CreateAndCheckoutBranch(name string) error
	// CheckoutBranch switches to the specified branch.
	CheckoutBranch(name string) error
	// DefaultBranch returns the repository's main branch, preferring
	// "main" and falling back to "master" or the current branch.
	DefaultBranch() (string, error)
}

// CommitOperations defines the interface for git commit operations.
type CommitOperations interface {
	// AddAll stages every change in the working tree.
	AddAll() error
	// Commit creates a new commit with the given message and returns its hash.
	Commit(message string) (string, error)
	// HasChanges returns true if there are uncommitted or untracked changes.
	HasChanges() (bool, error)
	// Diff returns the combined staged and unstaged diff.
	Diff() (string, error)
}

// RemoteOperations defines the interface for git remote operations.
type RemoteOperations interface {
	// RemoteURL returns the URL of the origin remote.
	RemoteURL() (string, error)
	// SetRemoteURL rewrites the origin remote URL.
	SetRemoteURL(url string) error
	// Push pushes the given branch to origin.
	Push(ctx context.Context, branch string) error
}

// Runner defines the complete interface for git operations used by the
// pipeline.
type Runner interface {
	CloneOperations
	BranchOperations
	CommitOperations
	RemoteOperations
	// Run executes an arbitrary git command with the given arguments.
	Run(args ...string) (string, error)
}
