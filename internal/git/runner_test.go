package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestAuthenticatedURL(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		want   string
	}{
		{
			name:   "https github",
			remote: "https://github.com/owner/repo.git",
			want:   "https://tok@github.com/owner/repo.git",
		},
		{
			name:   "ssh github",
			remote: "git@github.com:owner/repo.git",
			want:   "https://tok@github.com/owner/repo.git",
		},
		{
			name:   "ssh github without suffix",
			remote: "git@github.com:owner/repo",
			want:   "https://tok@github.com/owner/repo.git",
		},
		{
			name:   "generic https",
			remote: "https://example.com/owner/repo.git",
			want:   "https://tok@example.com/owner/repo.git",
		},
		{
			name:   "unknown scheme unchanged",
			remote: "ftp://example.com/repo",
			want:   "ftp://example.com/repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthenticatedURL(tt.remote, "tok"); got != tt.want {
				t.Errorf("AuthenticatedURL(%q) = %q, want %q", tt.remote, got, tt.want)
			}
		})
	}
}

// initTestRepo creates a git repository with one commit on main.
func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	r := NewRunner(dir)
	mustRun := func(args ...string) {
		t.Helper()
		if _, err := r.Run(args...); err != nil {
			t.Fatalf("git %v: %v", args, err)
		}
	}

	mustRun("init", "-b", "main")
	mustRun("config", "user.email", "test@example.com")
	mustRun("config", "user.name", "test")

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# demo\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mustRun("add", "-A")
	mustRun("commit", "-m", "initial")

	return dir
}

func TestRunnerBranchAndCommit(t *testing.T) {
	dir := initTestRepo(t)
	r := NewRunner(dir)

	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch() error = %v", err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch() = %q, want main", branch)
	}

	base, err := r.DefaultBranch()
	if err != nil {
		t.Fatalf("DefaultBranch() error = %v", err)
	}
	if base != "main" {
		t.Errorf("DefaultBranch() = %q, want main", base)
	}

	if err := r.CreateAndCheckoutBranch("feature"); err != nil {
		t.Fatalf("CreateAndCheckoutBranch() error = %v", err)
	}

	dirty, err := r.HasChanges()
	if err != nil {
		t.Fatalf("HasChanges() error = %v", err)
	}
	if dirty {
		t.Error("fresh branch should report no changes")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.py"), []byte("print('hi')\n"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := r.AddAll(); err != nil {
		t.Fatalf("AddAll() error = %v", err)
	}

	dirty, err = r.HasChanges()
	if err != nil {
		t.Fatalf("HasChanges() error = %v", err)
	}
	if !dirty {
		t.Error("staged file should report changes")
	}

	hash, err := r.Commit("add new.py")
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(hash) != 40 {
		t.Errorf("Commit() hash = %q, want full sha", hash)
	}
}

func TestClonePointsRunnerAtWorkingCopy(t *testing.T) {
	src := initTestRepo(t)

	r := NewRunner("")
	dest := filepath.Join(t.TempDir(), "clone")
	if err := r.Clone(context.Background(), src, dest); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	if r.RepoPath() != dest {
		t.Errorf("RepoPath() = %q, want %q", r.RepoPath(), dest)
	}
	if _, err := os.Stat(filepath.Join(dest, "README.md")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}
}

func TestDiffReportsNoChanges(t *testing.T) {
	dir := initTestRepo(t)
	r := NewRunner(dir)

	diff, err := r.Diff()
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if diff != "No changes detected" {
		t.Errorf("Diff() on clean tree = %q", diff)
	}
}
