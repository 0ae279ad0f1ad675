// Package sandbox provides the isolated validation environment for
// candidate change sets: workspace management, change application,
// execution, failure classification, correction, and the bounded
// validation loop that ties them together.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// sampleDataDirName is the subtree inside a workspace seeded with data
// files copied from the source repository.
const sampleDataDirName = "sample_data"

// maxSampleFiles bounds how many data files are copied into a workspace.
const maxSampleFiles = 50

// dataExtensions are the file types considered sample data.
var dataExtensions = map[string]bool{
	".csv":  true,
	".json": true,
	".txt":  true,
	".xml":  true,
	".yaml": true,
	".yml":  true,
	".tsv":  true,
	".log":  true,
}

// skipDirNames are directories never scanned for sample data.
var skipDirNames = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"vendor":       true,
}

// logFunc receives warning and progress messages from sandbox components.
type logFunc func(format string, args ...interface{})

func nopLog(string, ...interface{}) {}

// Workspace is a filesystem root exclusively owned by one validation
// run. It holds a sample_data subtree seeded from the source repository
// plus the candidate files under test, flattened to basenames.
type Workspace struct {
	root       string
	sourceRepo string
	logf       logFunc
}

// NewWorkspace creates a workspace rooted at the given path, seeding
// sample data from sourceRepo on each Reset. The directory is not
// created until Prepare is called.
func NewWorkspace(root, sourceRepo string) *Workspace {
	return &Workspace{
		root:       root,
		sourceRepo: sourceRepo,
		logf:       nopLog,
	}
}

// SetLogger sets the destination for workspace warnings.
func (w *Workspace) SetLogger(logf func(format string, args ...interface{})) {
	if logf != nil {
		w.logf = logf
	}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// SampleDataDir returns the path of the sample data subtree.
func (w *Workspace) SampleDataDir() string {
	return filepath.Join(w.root, sampleDataDirName)
}

// Prepare creates the workspace directory and performs an initial Reset.
// A failure here is unrecoverable for the validation run.
func (w *Workspace) Prepare() error {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	return w.Reset()
}

// Reset clears all files in the workspace and re-seeds the sample data
// subtree from the source repository. Reset is idempotent: two
// consecutive calls with no intervening apply produce the same
// sample-data set.
func (w *Workspace) Reset() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read workspace: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return fmt.Errorf("clear workspace entry %s: %w", entry.Name(), err)
		}
	}

	if err := os.MkdirAll(w.SampleDataDir(), 0755); err != nil {
		return fmt.Errorf("create sample data dir: %w", err)
	}

	copied := w.seedSampleData()
	if copied == 0 {
		if err := w.writeSyntheticSamples(); err != nil {
			return fmt.Errorf("write synthetic samples: %w", err)
		}
	}
	return nil
}

// Destroy removes the workspace tree entirely.
func (w *Workspace) Destroy() error {
	return os.RemoveAll(w.root)
}

// seedSampleData scans the source repository for data-like files and
// copies them into the sample_data subtree. Hidden directories and
// common build/cache directories are skipped. A failure to copy an
// individual file is a warning, never an error. Returns the number of
// files copied.
func (w *Workspace) seedSampleData() int {
	if w.sourceRepo == "" {
		return 0
	}

	copied := 0
	_ = filepath.WalkDir(w.sourceRepo, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logf("sample data scan: %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != w.sourceRepo && (strings.HasPrefix(name, ".") || skipDirNames[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if copied >= maxSampleFiles {
			return filepath.SkipAll
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if !dataExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}

		dst := filepath.Join(w.SampleDataDir(), d.Name())
		if _, err := os.Stat(dst); err == nil {
			// Basename collision with an earlier copy; first one wins.
			return nil
		}
		if err := copyDataFile(path, dst); err != nil {
			w.logf("skipping sample file %s: %v", d.Name(), err)
			return nil
		}
		copied++
		return nil
	})

	return copied
}

// copyDataFile copies a data file, preferring a text read so that
// line endings survive intact, and falling back to a raw byte copy when
// the content is not valid UTF-8.
func copyDataFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		// Binary-ish data file; copy the raw bytes as-is.
		return os.WriteFile(dst, data, 0644)
	}
	return os.WriteFile(dst, []byte(string(data)), 0644)
}

// writeSyntheticSamples creates minimal CSV and JSON samples so that
// candidates depending on sample data still have something to read.
func (w *Workspace) writeSyntheticSamples() error {
	csvSample := "id,name,value\n1,alpha,100\n2,beta,200\n3,gamma,300\n"
	jsonSample := `{
  "items": [
    {"id": 1, "name": "alpha", "value": 100},
    {"id": 2, "name": "beta", "value": 200}
  ],
  "count": 2
}
`
	if err := os.WriteFile(filepath.Join(w.SampleDataDir(), "sample.csv"), []byte(csvSample), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.SampleDataDir(), "sample.json"), []byte(jsonSample), 0644)
}

// snapshot captures the complete file state of the workspace as a map
// of relative path to content. Used to restore the workspace after each
// validation iteration.
func (w *Workspace) snapshot() (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot workspace: %w", err)
	}
	return files, nil
}

// restore returns the workspace to a previously captured snapshot:
// files absent from the snapshot are removed, files present are
// rewritten if their content drifted. Restoration must complete before
// the next iteration applies new changes.
func (w *Workspace) restore(files map[string][]byte) error {
	// Remove anything the apply step introduced.
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, rerr := filepath.Rel(w.root, path)
		if rerr != nil {
			return rerr
		}
		if _, ok := files[rel]; !ok {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("restore workspace: %w", err)
	}

	for rel, data := range files {
		path := filepath.Join(w.root, rel)
		current, err := os.ReadFile(path)
		if err == nil && string(current) == string(data) {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("restore %s: %w", rel, err)
		}
	}
	return nil
}
