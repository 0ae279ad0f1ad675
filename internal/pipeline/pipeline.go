package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShimantoBhowmik/zen-code/internal/agent"
	zexec "github.com/ShimantoBhowmik/zen-code/internal/exec"
	"github.com/ShimantoBhowmik/zen-code/internal/git"
	"github.com/ShimantoBhowmik/zen-code/internal/github"
	"github.com/ShimantoBhowmik/zen-code/internal/sandbox"
	"github.com/ShimantoBhowmik/zen-code/internal/state"
	"github.com/ShimantoBhowmik/zen-code/pkg/models"
)

// ErrCanceled is returned when an out-of-band cancel signal aborts a run.
var ErrCanceled = errors.New("run canceled")

// Backend is the generation surface a run needs.
type Backend interface {
	AnalyzeCodebase(ctx context.Context, repoPath, prompt string) (*agent.Analysis, error)
	GenerateChanges(ctx context.Context, prompt string, analysis *agent.Analysis) (models.ChangeSet, []string, error)
	CorrectChanges(ctx context.Context, changes models.ChangeSet, errorMessage, prompt string) (models.ChangeSet, error)
}

// Applier validates and applies a change set into the cloned repository.
type Applier interface {
	ApplyChanges(ctx context.Context, targetDir string, changes models.ChangeSet, prompt string, validate bool) (models.Verdict, []models.AppliedChange, error)
}

// PullRequester opens a pull request and returns its URL.
type PullRequester interface {
	CreatePullRequest(ctx context.Context, head, base, title, body string) (string, error)
}

// Deps carries the pipeline's collaborators. Zero-value fields get
// production defaults in New; tests substitute fakes.
type Deps struct {
	Git              git.Runner
	Sandboxes        *sandbox.Manager
	Backend          Backend
	NewApplier       func(workspaceRoot, sourceRepo string) Applier
	NewPullRequester func(owner, repo string) (PullRequester, error)
	Store            *state.DB
	Emitter          *Emitter
	Signals          *SignalWatcher
	Logger           *DebugLogger
	GitHubToken      string
}

// Options configure a single run.
type Options struct {
	// RepoURL is the GitHub repository to modify.
	RepoURL string
	// Prompt is the natural-language change request.
	Prompt string
	// Branch overrides the auto-generated branch name.
	Branch string
	// Model names the LLM in the run record and PR body. Display only.
	Model string
	// DryRun stops after generation and reports the proposed changes.
	DryRun bool
	// Validate runs the sandbox validation loop before publishing.
	Validate bool
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	Success    bool
	DryRun     bool
	Changes    models.ChangeSet
	Applied    []models.AppliedChange
	Verdict    models.Verdict
	Branch     string
	CommitHash string
	PRURL      string
}

// Pipeline executes change runs end to end.
type Pipeline struct {
	deps Deps
}

// New creates a pipeline, filling in production defaults for
// collaborators the caller left nil.
func New(deps Deps) *Pipeline {
	if deps.Sandboxes == nil {
		deps.Sandboxes = sandbox.NewManager("")
	}
	if deps.Emitter == nil {
		deps.Emitter = NewEmitter(100)
	}
	if deps.Logger == nil {
		deps.Logger, _ = NewDebugLogger("")
	}
	if deps.NewApplier == nil {
		backend := deps.Backend
		deps.NewApplier = func(workspaceRoot, sourceRepo string) Applier {
			ws := sandbox.NewWorkspace(workspaceRoot, sourceRepo)
			var generator sandbox.Generator
			if backend != nil {
				generator = backend
			}
			return sandbox.NewValidator(ws, zexec.NewRunner(), generator)
		}
	}
	if deps.NewPullRequester == nil {
		token := deps.GitHubToken
		deps.NewPullRequester = func(owner, repo string) (PullRequester, error) {
			return github.NewClient(token, owner, repo)
		}
	}
	return &Pipeline{deps: deps}
}

// Emitter exposes the event stream for subscribers.
func (p *Pipeline) Emitter() *Emitter {
	return p.deps.Emitter
}

// Run executes the full pipeline for one change request. Validation
// failure is not an error: it is reported in the result with
// Success=false and nothing is published.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	owner, repo, err := github.ParseRepoURL(opts.RepoURL)
	if err != nil {
		return nil, err
	}

	result := &Result{DryRun: opts.DryRun}
	if p.deps.Store != nil {
		run, err := p.deps.Store.CreateRun(opts.RepoURL, opts.Prompt)
		if err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		result.RunID = run.ID
	}

	err = p.run(ctx, opts, owner, repo, result)
	p.finishRun(result, err)
	if err != nil {
		p.emit(EventError, err.Error(), nil)
		return result, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, opts Options, owner, repo string, result *Result) error {
	// Clone into a fresh sandbox directory.
	p.emit(EventCloneStart, opts.RepoURL, nil)
	if err := p.deps.Sandboxes.Ensure(); err != nil {
		return err
	}
	cloneDir := p.deps.Sandboxes.CloneTarget(opts.RepoURL)
	if err := p.deps.Git.Clone(ctx, opts.RepoURL, cloneDir); err != nil {
		return fmt.Errorf("clone repository: %w", err)
	}
	defer p.deps.Sandboxes.Cleanup(cloneDir)

	if err := p.deps.Sandboxes.ValidateRepoSize(cloneDir); err != nil {
		return err
	}
	p.emit(EventCloneComplete, cloneDir, nil)

	if err := p.checkCancel(ctx); err != nil {
		return err
	}

	// Understand the codebase.
	p.emit(EventAnalyzeStart, "", nil)
	analysis, err := p.deps.Backend.AnalyzeCodebase(ctx, cloneDir, opts.Prompt)
	if err != nil {
		return err
	}
	p.emit(EventAnalyzeComplete, "", map[string]interface{}{"files": len(analysis.Files)})

	if err := p.checkCancel(ctx); err != nil {
		return err
	}

	// Generate the change set.
	p.emit(EventGenerateStart, "", nil)
	changes, warnings, err := p.deps.Backend.GenerateChanges(ctx, opts.Prompt, analysis)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		p.deps.Logger.Log("generation warning: %s", w)
	}
	result.Changes = changes
	p.emit(EventGenerateComplete, "", map[string]interface{}{"changes": len(changes)})

	if opts.DryRun {
		result.Success = true
		p.emit(EventDone, "dry run complete", nil)
		return nil
	}

	if err := p.checkCancel(ctx); err != nil {
		return err
	}

	// Validate and apply. A failed verdict is a hard publish gate.
	p.emit(EventApplyStart, "", map[string]interface{}{"changes": len(changes)})
	applier := p.deps.NewApplier(p.deps.Sandboxes.WorkspaceDir(cloneDir), cloneDir)
	verdict, applied, err := applier.ApplyChanges(ctx, cloneDir, changes, opts.Prompt, opts.Validate)
	if err != nil {
		return err
	}
	result.Verdict = verdict
	result.Applied = applied
	if !verdict.Success {
		p.emit(EventValidationFailed, verdict.Feedback, nil)
		return nil
	}
	p.emit(EventApplyComplete, "", map[string]interface{}{"applied": len(applied)})

	if err := p.checkCancel(ctx); err != nil {
		return err
	}

	// Branch, commit, push.
	base, err := p.deps.Git.DefaultBranch()
	if err != nil {
		return err
	}
	branch := opts.Branch
	if branch == "" {
		branch = fmt.Sprintf("zen-code-%d", time.Now().Unix())
	}
	result.Branch = branch

	p.emit(EventCommitStart, branch, nil)
	if err := p.deps.Git.CreateAndCheckoutBranch(branch); err != nil {
		return err
	}
	if err := p.deps.Git.AddAll(); err != nil {
		return err
	}
	dirty, err := p.deps.Git.HasChanges()
	if err != nil {
		return err
	}
	if !dirty {
		return fmt.Errorf("no changes to commit")
	}
	hash, err := p.deps.Git.Commit("ZEN CODE: " + opts.Prompt)
	if err != nil {
		return err
	}
	result.CommitHash = hash
	p.emit(EventCommitComplete, hash, nil)

	p.emit(EventPushStart, branch, nil)
	if p.deps.GitHubToken != "" {
		remoteURL, err := p.deps.Git.RemoteURL()
		if err != nil {
			return err
		}
		if err := p.deps.Git.SetRemoteURL(git.AuthenticatedURL(remoteURL, p.deps.GitHubToken)); err != nil {
			return err
		}
	}
	if err := p.deps.Git.Push(ctx, branch); err != nil {
		return err
	}
	p.emit(EventPushComplete, branch, nil)

	// Open the pull request.
	p.emit(EventPRStart, "", nil)
	prs, err := p.deps.NewPullRequester(owner, repo)
	if err != nil {
		return err
	}
	title := github.PRTitle(opts.Prompt, verdict.Changes)
	body := github.PRBody(opts.Prompt, verdict.Feedback, hash)
	prURL, err := prs.CreatePullRequest(ctx, branch, base, title, body)
	if err != nil {
		return err
	}
	result.PRURL = prURL
	result.Success = true
	p.emit(EventPRComplete, prURL, nil)
	p.emit(EventDone, prURL, nil)
	return nil
}

// checkCancel aborts between stages on context cancellation or an
// out-of-band cancel signal.
func (p *Pipeline) checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.deps.Signals != nil && p.deps.Signals.ShouldCancel() {
		return ErrCanceled
	}
	return nil
}

// finishRun records the terminal run state when a store is configured.
func (p *Pipeline) finishRun(result *Result, runErr error) {
	if p.deps.Store == nil || result.RunID == "" {
		return
	}

	status := state.RunSucceeded
	feedback := result.Verdict.Feedback
	switch {
	case runErr != nil:
		status = state.RunFailed
		feedback = runErr.Error()
	case !result.Success:
		status = state.RunFailed
	case result.DryRun:
		feedback = "dry run"
	}

	if err := p.deps.Store.FinishRun(result.RunID, status, result.Branch, result.PRURL, feedback, result.Verdict.Iterations); err != nil {
		p.deps.Logger.Log("record run outcome: %v", err)
	}
}

func (p *Pipeline) emit(t EventType, message string, data map[string]interface{}) {
	p.deps.Emitter.Emit(Event{Type: t, Message: message, Data: data})
}
