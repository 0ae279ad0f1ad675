package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// fakeGenerator scripts the correction backend for tests.
type fakeGenerator struct {
	changes models.ChangeSet
	err     error
	calls   int
}

func (f *fakeGenerator) CorrectChanges(_ context.Context, _ models.ChangeSet, _, _ string) (models.ChangeSet, error) {
	f.calls++
	return f.changes, f.err
}

func TestReindentWithBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "statements after opener pulled into block",
			in: "with open('sample_data/data.csv') as f:\n" +
				"reader = csv.reader(f)\n" +
				"for row in reader:\n" +
				"print(row)\n",
			want: "with open('sample_data/data.csv') as f:\n" +
				"    reader = csv.reader(f)\n" +
				"    for row in reader:\n" +
				"    print(row)\n",
		},
		{
			name: "deeper-indented lines untouched",
			in: "with open('f') as f:\n" +
				"    data = f.read()\n" +
				"print(data)\n",
			want: "with open('f') as f:\n" +
				"    data = f.read()\n" +
				"    print(data)\n",
		},
		{
			name: "stops at def boundary",
			in: "with open('f') as f:\n" +
				"data = f.read()\n" +
				"def helper():\n" +
				"    pass\n",
			want: "with open('f') as f:\n" +
				"    data = f.read()\n" +
				"def helper():\n" +
				"    pass\n",
		},
		{
			name: "stops at main guard",
			in: "with open('f') as f:\n" +
				"data = f.read()\n" +
				"if __name__ == '__main__':\n" +
				"    main()\n",
			want: "with open('f') as f:\n" +
				"    data = f.read()\n" +
				"if __name__ == '__main__':\n" +
				"    main()\n",
		},
		{
			name: "nested opener keeps its own indent",
			in: "def main():\n" +
				"    with open('f') as f:\n" +
				"    data = f.read()\n",
			want: "def main():\n" +
				"    with open('f') as f:\n" +
				"        data = f.read()\n",
		},
		{
			name: "blank lines skipped",
			in: "with open('f') as f:\n" +
				"\n" +
				"data = f.read()\n",
			want: "with open('f') as f:\n" +
				"\n" +
				"    data = f.read()\n",
		},
		{
			name: "no opener passes through",
			in:   "x = 1\nprint(x)\n",
			want: "x = 1\nprint(x)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reindentWithBlocks(tt.in); got != tt.want {
				t.Errorf("reindentWithBlocks() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestHeuristicFix_OnlyTouchesPython(t *testing.T) {
	c := NewCorrector(nil)
	src := "with open('f') as f:\ndata = f.read()\n"
	changes := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "script.py", Content: src},
		{Action: models.ActionCreate, FilePath: "page.html", Content: src},
		{Action: models.ActionDelete, FilePath: "old.py", Content: src},
	}

	fixed := c.HeuristicFix(changes)

	if fixed[0].Content == src {
		t.Error("python change not reindented")
	}
	if fixed[1].Content != src {
		t.Error("non-python change was modified")
	}
	if fixed[2].Content != src {
		t.Error("delete change was modified")
	}
}

func TestCorrect_AdoptsBackendResult(t *testing.T) {
	original := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a.py", Content: "broken"},
	}
	revised := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a.py", Content: "fixed"},
	}

	backend := &fakeGenerator{changes: revised}
	c := NewCorrector(backend)

	got := c.Correct(context.Background(), original, "some error", "prompt")
	if !got.Equal(revised) {
		t.Errorf("Correct() = %v, want backend result", got)
	}
	if backend.calls != 1 {
		t.Errorf("backend called %d times, want 1", backend.calls)
	}
}

func TestCorrect_IdenticalResultFallsBackToHeuristic(t *testing.T) {
	original := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a.py", Content: "with open('f') as f:\ndata = f.read()\n"},
	}

	backend := &fakeGenerator{changes: original}
	c := NewCorrector(backend)

	got := c.Correct(context.Background(), original, "err", "prompt")
	if got.Equal(original) {
		t.Error("identical backend result should trigger the heuristic fix")
	}
	if got[0].Content != "with open('f') as f:\n    data = f.read()\n" {
		t.Errorf("heuristic content = %q", got[0].Content)
	}
}

func TestCorrect_BackendErrorFallsBackToHeuristic(t *testing.T) {
	original := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a.py", Content: "with open('f') as f:\ndata = f.read()\n"},
	}

	backend := &fakeGenerator{err: errors.New("backend unavailable")}
	c := NewCorrector(backend)

	got := c.Correct(context.Background(), original, "err", "prompt")
	if got.Equal(original) {
		t.Error("backend error should trigger the heuristic fix")
	}
}

func TestCorrect_NilBackendUsesHeuristic(t *testing.T) {
	original := models.ChangeSet{
		{Action: models.ActionCreate, FilePath: "a.py", Content: "with open('f') as f:\ndata = f.read()\n"},
	}

	c := NewCorrector(nil)
	got := c.Correct(context.Background(), original, "err", "prompt")
	if got.Equal(original) {
		t.Error("nil backend should still apply the heuristic fix")
	}
}
