package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecRunner implements Runner using exec.Command.
type ExecRunner struct {
	repoPath string
}

// NewRunner creates a new git runner for the repository at the given path.
func NewRunner(repoPath string) *ExecRunner {
	return &ExecRunner{repoPath: repoPath}
}

// SetRepoPath points the runner at a repository. Used after Clone, which
// runs before the working copy exists.
func (r *ExecRunner) SetRepoPath(path string) {
	r.repoPath = path
}

// RepoPath returns the repository the runner operates on.
func (r *ExecRunner) RepoPath() string {
	return r.repoPath
}

// run executes a git command and returns its output.
func (r *ExecRunner) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// runSilent executes a git command and ignores output.
func (r *ExecRunner) runSilent(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return nil
}

// Run executes an arbitrary git command with the given arguments.
func (r *ExecRunner) Run(args ...string) (string, error) {
	return r.run(args...)
}

// Clone performs a shallow, single-branch clone of repoURL into dest and
// points the runner at the new working copy.
func (r *ExecRunner) Clone(ctx context.Context, repoURL, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--single-branch", repoURL, dest)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone %s: %w: %s", repoURL, err, string(out))
	}
	r.repoPath = dest
	return nil
}

// CurrentBranch returns the name of the current branch.
func (r *ExecRunner) CurrentBranch() (string, error) {
	return r.run("rev-parse", "--abbrev-ref", "HEAD")
}

// CreateAndCheckoutBranch creates and switches to a new branch.
func (r *ExecRunner) CreateAndCheckoutBranch(name string) error {
	return r.runSilent("checkout", "-b", name)
}

// CheckoutBranch switches to the specified branch.
func (r *ExecRunner) CheckoutBranch(name string) error {
	return r.runSilent("checkout", name)
}

// DefaultBranch returns the repository's main branch: "main" when it
// exists, then "master", then whatever branch is currently checked out.
func (r *ExecRunner) DefaultBranch() (string, error) {
	for _, name := range []string{"main", "master"} {
		cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
		cmd.Dir = r.repoPath
		if cmd.Run() == nil {
			return name, nil
		}
	}
	return r.CurrentBranch()
}

// AddAll stages every change in the working tree.
func (r *ExecRunner) AddAll() error {
	return r.runSilent("add", "-A")
}

// Commit creates a new commit with the given message and returns its hash.
func (r *ExecRunner) Commit(message string) (string, error) {
	if err := r.runSilent("commit", "-m", message); err != nil {
		return "", err
	}
	return r.run("rev-parse", "HEAD")
}

// HasChanges returns true if there are uncommitted or untracked changes.
func (r *ExecRunner) HasChanges() (bool, error) {
	status, err := r.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(status) > 0, nil
}

// Diff returns the combined staged and unstaged diff.
func (r *ExecRunner) Diff() (string, error) {
	unstaged, err := r.run("diff")
	if err != nil {
		return "", err
	}
	staged, err := r.run("diff", "--cached")
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if unstaged != "" {
		sb.WriteString(unstaged)
		sb.WriteString("\n")
	}
	if staged != "" {
		sb.WriteString(staged)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "No changes detected", nil
	}
	return sb.String(), nil
}

// RemoteURL returns the URL of the origin remote.
func (r *ExecRunner) RemoteURL() (string, error) {
	return r.run("remote", "get-url", "origin")
}

// SetRemoteURL rewrites the origin remote URL.
func (r *ExecRunner) SetRemoteURL(url string) error {
	return r.runSilent("remote", "set-url", "origin", url)
}

// Push pushes the given branch to origin.
func (r *ExecRunner) Push(ctx context.Context, branch string) error {
	cmd := exec.CommandContext(ctx, "git", "push", "origin", branch+":"+branch)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git push %s: %w: %s", branch, err, string(out))
	}
	return nil
}

// AuthenticatedURL rewrites a GitHub remote URL to embed the access
// token for push. Both https and ssh remote forms are handled.
func AuthenticatedURL(remoteURL, token string) string {
	switch {
	case strings.HasPrefix(remoteURL, "https://github.com/"):
		return strings.Replace(remoteURL, "https://github.com/", "https://"+token+"@github.com/", 1)
	case strings.HasPrefix(remoteURL, "git@github.com:"):
		path := strings.TrimSuffix(strings.TrimPrefix(remoteURL, "git@github.com:"), ".git")
		return "https://" + token + "@github.com/" + path + ".git"
	case strings.HasPrefix(remoteURL, "https://"):
		return strings.Replace(remoteURL, "https://", "https://"+token+"@", 1)
	default:
		return remoteURL
	}
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
