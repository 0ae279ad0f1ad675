package github

import (
	"testing"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

func TestPRTitle(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		changes models.ChangeSet
		want    string
	}{
		{
			name:   "single file with fix keyword",
			prompt: "fix the division bug",
			changes: models.ChangeSet{
				{Action: models.ActionModify, FilePath: "src/calc.py"},
			},
			want: "Fix: calc.py",
		},
		{
			name:   "few files joined",
			prompt: "add greeting scripts",
			changes: models.ChangeSet{
				{Action: models.ActionCreate, FilePath: "hello.py"},
				{Action: models.ActionCreate, FilePath: "greet.py"},
			},
			want: "Add: hello.py, greet.py",
		},
		{
			name:   "many files counted",
			prompt: "update everything",
			changes: models.ChangeSet{
				{Action: models.ActionModify, FilePath: "a.py"},
				{Action: models.ActionModify, FilePath: "b.py"},
				{Action: models.ActionModify, FilePath: "c.py"},
				{Action: models.ActionModify, FilePath: "d.py"},
			},
			want: "Update: 4 files",
		},
		{
			name:   "docs keyword",
			prompt: "rewrite the readme",
			changes: models.ChangeSet{
				{Action: models.ActionModify, FilePath: "README.md"},
			},
			want: "Docs: README.md",
		},
		{
			name:   "category from actions when no keyword",
			prompt: "greeting script please",
			changes: models.ChangeSet{
				{Action: models.ActionModify, FilePath: "x.py"},
			},
			want: "Update: x.py",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PRTitle(tt.prompt, tt.changes); got != tt.want {
				t.Errorf("PRTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPRTitle_LengthBounded(t *testing.T) {
	changes := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a_very_long_module_name_indeed.py"},
		{Action: models.ActionCreate, FilePath: "another_quite_long_module_name.py"},
	}
	prompt := "implement the extremely elaborate multi-stage reporting pipeline requested by the data team"

	got := PRTitle(prompt, changes)
	if len(got) > maxTitleLen {
		t.Errorf("title %q exceeds %d characters", got, maxTitleLen)
	}
}
