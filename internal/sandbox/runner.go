package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxRepoSizeMB bounds how large a cloned repository may be
// before validation refuses to work on it.
const DefaultMaxRepoSizeMB = 100

// Manager owns the sandbox root directory where repositories are cloned
// and validation workspaces live. One manager serves many runs; each run
// gets its own subdirectories.
type Manager struct {
	root          string
	maxRepoSizeMB int64
	logf          logFunc
}

// NewManager creates a sandbox manager rooted at root. An empty root
// defaults to a zen-code directory under the system temp dir.
func NewManager(root string) *Manager {
	if root == "" {
		root = filepath.Join(os.TempDir(), "zen-code-sandbox")
	}
	return &Manager{
		root:          root,
		maxRepoSizeMB: DefaultMaxRepoSizeMB,
		logf:          nopLog,
	}
}

// SetLogger sets the destination for manager warnings.
func (m *Manager) SetLogger(logf func(format string, args ...interface{})) {
	if logf != nil {
		m.logf = logf
	}
}

// SetMaxRepoSizeMB overrides the repository size limit.
func (m *Manager) SetMaxRepoSizeMB(mb int64) {
	if mb > 0 {
		m.maxRepoSizeMB = mb
	}
}

// Root returns the sandbox root directory.
func (m *Manager) Root() string {
	return m.root
}

// Ensure creates the sandbox root if it does not exist.
func (m *Manager) Ensure() error {
	if err := os.MkdirAll(m.root, 0755); err != nil {
		return fmt.Errorf("create sandbox root: %w", err)
	}
	return nil
}

// CloneTarget returns a fresh, timestamped directory path for cloning
// the given repository into the sandbox.
func (m *Manager) CloneTarget(repoURL string) string {
	name := repoName(repoURL)
	return filepath.Join(m.root, fmt.Sprintf("%s-%d", name, time.Now().Unix()))
}

// WorkspaceDir returns the validation workspace path paired with a clone
// directory.
func (m *Manager) WorkspaceDir(cloneDir string) string {
	return cloneDir + "-workspace"
}

// ValidateRepoSize checks the on-disk size of a cloned repository
// against the configured limit.
func (m *Manager) ValidateRepoSize(repoDir string) error {
	var total int64
	err := filepath.WalkDir(repoDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return fmt.Errorf("measure repository size: %w", err)
	}

	limit := m.maxRepoSizeMB * 1024 * 1024
	if total > limit {
		return fmt.Errorf("repository size %.1f MB exceeds the %d MB limit", float64(total)/(1024*1024), m.maxRepoSizeMB)
	}
	return nil
}

// Cleanup removes a clone directory and its paired workspace.
func (m *Manager) Cleanup(cloneDir string) {
	for _, dir := range []string{cloneDir, m.WorkspaceDir(cloneDir)} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			m.logf("cleanup %s: %v", dir, err)
		}
	}
}

// CleanupStale removes sandbox entries older than the given age. It
// returns the number of entries removed.
func (m *Manager) CleanupStale(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read sandbox root: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-olderThan)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			m.logf("stat sandbox entry %s: %v", entry.Name(), err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, entry.Name())); err != nil {
			m.logf("remove stale sandbox entry %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// repoName derives a directory-safe name from a repository URL.
func repoName(repoURL string) string {
	name := strings.TrimSuffix(repoURL, ".git")
	name = strings.TrimSuffix(name, "/")
	if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "repo"
	}
	return name
}
