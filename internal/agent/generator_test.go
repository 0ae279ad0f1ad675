package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// fakeCompleter scripts the LLM for tests.
type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	return f.response, f.err
}

func TestParseChangeResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantLen  int
		wantErr  bool
	}{
		{
			name: "bare json",
			response: `{"changes": [{"action": "create", "file_path": "a.py", "content": "x"}],
				"summary": "adds a.py"}`,
			wantLen: 1,
		},
		{
			name: "json inside code fence with prose",
			response: "Here are the changes:\n```json\n" +
				`{"changes": [{"action": "modify", "file_path": "b.py", "content": "y"},` +
				`{"action": "delete", "file_path": "c.py", "content": ""}]}` +
				"\n```\nLet me know if you need more.",
			wantLen: 2,
		},
		{
			name:     "no json at all",
			response: "I cannot make these changes.",
			wantErr:  true,
		},
		{
			name:     "malformed json",
			response: `{"changes": [{"action": }`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope, err := parseChangeResponse(tt.response)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseChangeResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(envelope.Changes) != tt.wantLen {
				t.Errorf("parsed %d changes, want %d", len(envelope.Changes), tt.wantLen)
			}
		})
	}
}

func TestGenerateChanges(t *testing.T) {
	llm := &fakeCompleter{
		response: `{"changes": [
			{"action": "create", "file_path": "hello.py", "content": "print('hi')\n", "description": "greeting script"},
			{"action": "create", "file_path": "../escape.py", "content": "bad"}
		], "summary": "adds greeting"}`,
	}
	agent := NewAgent(llm)

	changes, warnings, err := agent.GenerateChanges(context.Background(), "add a greeting", &Analysis{Summary: "a python repo"})
	if err != nil {
		t.Fatalf("GenerateChanges() error = %v", err)
	}
	if len(changes) != 1 || changes[0].FilePath != "hello.py" {
		t.Errorf("changes = %v, want only hello.py", changes)
	}
	// The path-escaping entry is dropped with a warning, not an error.
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 entry", warnings)
	}
}

func TestGenerateChanges_NoUsableChanges(t *testing.T) {
	llm := &fakeCompleter{response: `{"changes": [], "summary": "nothing"}`}
	agent := NewAgent(llm)

	if _, _, err := agent.GenerateChanges(context.Background(), "do nothing", nil); err == nil {
		t.Error("GenerateChanges() with an empty change list should fail")
	}
}

func TestGenerateChanges_BackendError(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("api unavailable")}
	agent := NewAgent(llm)

	if _, _, err := agent.GenerateChanges(context.Background(), "x", nil); err == nil {
		t.Error("GenerateChanges() should propagate backend errors")
	}
}

func TestCorrectChanges_PromptCarriesContext(t *testing.T) {
	llm := &fakeCompleter{
		response: `{"changes": [{"action": "create", "file_path": "fixed.py", "content": "ok"}]}`,
	}
	agent := NewAgent(llm)

	failing := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "broken.py", Content: "print(1/0)"},
	}
	revised, err := agent.CorrectChanges(context.Background(), failing, "[runtime] ZeroDivisionError", "divide safely")
	if err != nil {
		t.Fatalf("CorrectChanges() error = %v", err)
	}
	if len(revised) != 1 || revised[0].FilePath != "fixed.py" {
		t.Errorf("revised = %v", revised)
	}

	prompt := llm.prompts[0]
	for _, fragment := range []string{"broken.py", "ZeroDivisionError", "divide safely", "print(1/0)"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("correction prompt missing %q", fragment)
		}
	}
}

func TestRepoStructure(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"main.py",
		"src/util.py",
		".hidden/secret.py",
		"node_modules/pkg/index.js",
	} {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	files, dirs, err := RepoStructure(root)
	if err != nil {
		t.Fatalf("RepoStructure() error = %v", err)
	}

	wantFiles := map[string]bool{"main.py": true, filepath.Join("src", "util.py"): true}
	if len(files) != len(wantFiles) {
		t.Fatalf("files = %v, want %v", files, wantFiles)
	}
	for _, f := range files {
		if !wantFiles[f] {
			t.Errorf("unexpected file %q in structure", f)
		}
	}
	if len(dirs) != 1 || dirs[0] != "src" {
		t.Errorf("dirs = %v, want [src]", dirs)
	}
}

func TestReadKeyFiles(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("a", maxKeyFileBytes+100)
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(long), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "requirements.txt"), []byte("flask\n"), 0644); err != nil {
		t.Fatalf("write requirements: %v", err)
	}

	keyFiles := ReadKeyFiles(root)
	if len(keyFiles) != 2 {
		t.Fatalf("read %d key files, want 2: %v", len(keyFiles), keyFiles)
	}
	if !strings.HasSuffix(keyFiles["README.md"], "... (truncated)") {
		t.Error("oversized key file not truncated")
	}
	if keyFiles["requirements.txt"] != "flask\n" {
		t.Errorf("requirements content = %q", keyFiles["requirements.txt"])
	}
}
