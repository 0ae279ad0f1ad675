package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

func TestApplier_Apply(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "app.py")
	if err := os.WriteFile(existing, []byte("old content\n"), 0644); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	changes := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "hello.py", Content: "print('hi')\n"},
		{Action: models.ActionModify, FilePath: "app.py", Content: "new content\n"},
		{Action: models.ActionCreate, FilePath: "pkg/util.py", Content: "x = 1\n"},
	}

	applier := NewApplier()
	applied, err := applier.Apply(changes, dir)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("applied %d changes, want 3", len(applied))
	}

	data, err := os.ReadFile(filepath.Join(dir, "hello.py"))
	if err != nil || string(data) != "print('hi')\n" {
		t.Errorf("created file content = %q, err = %v", data, err)
	}
	data, err = os.ReadFile(existing)
	if err != nil || string(data) != "new content\n" {
		t.Errorf("modified file content = %q, err = %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pkg", "util.py")); err != nil {
		t.Errorf("nested create missing: %v", err)
	}
}

func TestApplier_ModifyWritesBackup(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.py")
	if err := os.WriteFile(target, []byte("original\n"), 0644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	applier := NewApplier()
	_, err := applier.Apply(models.ChangeSet{
		{Action: models.ActionModify, FilePath: "app.py", Content: "changed\n"},
	}, dir)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	backup, err := os.ReadFile(target + ".backup")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(backup) != "original\n" {
		t.Errorf("backup content = %q, want original", backup)
	}
}

func TestApplier_ModifyAbsentFileNoBackup(t *testing.T) {
	dir := t.TempDir()

	applier := NewApplier()
	applied, err := applier.Apply(models.ChangeSet{
		{Action: models.ActionModify, FilePath: "fresh.py", Content: "x\n"},
	}, dir)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("applied %d changes, want 1", len(applied))
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.py.backup")); !os.IsNotExist(err) {
		t.Error("backup created for a file that did not exist")
	}
}

func TestApplier_Delete(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "old.py")
	if err := os.WriteFile(target, []byte("bye\n"), 0644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	applier := NewApplier()
	applied, err := applier.Apply(models.ChangeSet{
		{Action: models.ActionDelete, FilePath: "old.py"},
		{Action: models.ActionDelete, FilePath: "never-existed.py"},
	}, dir)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// The absent delete is skipped silently, not an error.
	if len(applied) != 1 {
		t.Fatalf("applied %d changes, want 1", len(applied))
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("deleted file still present")
	}
}

func TestApplier_DropsMalformedEntries(t *testing.T) {
	dir := t.TempDir()

	applier := NewApplier()
	applied, err := applier.Apply(models.ChangeSet{
		{Action: "rename", FilePath: "a.py", Content: "x"},
		{Action: models.ActionCreate, FilePath: "", Content: "x"},
		{Action: models.ActionCreate, FilePath: "ok.py", Content: "x"},
	}, dir)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(applied) != 1 || applied[0].FilePath != "ok.py" {
		t.Errorf("applied = %v, want only ok.py", applied)
	}
}
