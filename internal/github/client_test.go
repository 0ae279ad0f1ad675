package github

import (
	"context"
	"errors"
	"net/http"
	"testing"

	gh "github.com/google/go-github/v84/github"
)

// fakePRService scripts the pull request API for tests.
type fakePRService struct {
	failBases map[string]error
	created   []*gh.NewPullRequest
	url       string
}

func (f *fakePRService) Create(_ context.Context, _, _ string, pull *gh.NewPullRequest) (*gh.PullRequest, *gh.Response, error) {
	f.created = append(f.created, pull)
	if err, ok := f.failBases[pull.GetBase()]; ok {
		return nil, nil, err
	}
	return &gh.PullRequest{HTMLURL: gh.Ptr(f.url)}, nil, nil
}

func unprocessableErr() error {
	return &gh.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Message:  "Validation Failed",
	}
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url       string
		owner     string
		repo      string
		wantErr   bool
	}{
		{url: "https://github.com/owner/project.git", owner: "owner", repo: "project"},
		{url: "https://github.com/owner/project", owner: "owner", repo: "project"},
		{url: "git@github.com:owner/project.git", owner: "owner", repo: "project"},
		{url: "https://gitlab.com/owner/project", wantErr: true},
		{url: "https://github.com/owner", wantErr: true},
		{url: "https://github.com/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepoURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err == nil && (owner != tt.owner || repo != tt.repo) {
				t.Errorf("ParseRepoURL(%q) = %q/%q, want %q/%q", tt.url, owner, repo, tt.owner, tt.repo)
			}
		})
	}
}

func TestCreatePullRequest(t *testing.T) {
	svc := &fakePRService{url: "https://github.com/owner/project/pull/7"}
	c := &Client{prs: svc, owner: "owner", repo: "project"}

	url, err := c.CreatePullRequest(context.Background(), "feature", "main", "Add: hello.py", "body")
	if err != nil {
		t.Fatalf("CreatePullRequest() error = %v", err)
	}
	if url != svc.url {
		t.Errorf("url = %q, want %q", url, svc.url)
	}
	if len(svc.created) != 1 {
		t.Fatalf("created %d PRs, want 1", len(svc.created))
	}
}

func TestCreatePullRequest_FallsBackToMaster(t *testing.T) {
	svc := &fakePRService{
		url:       "https://github.com/owner/project/pull/8",
		failBases: map[string]error{"main": unprocessableErr()},
	}
	c := &Client{prs: svc, owner: "owner", repo: "project"}

	url, err := c.CreatePullRequest(context.Background(), "feature", "main", "title", "body")
	if err != nil {
		t.Fatalf("CreatePullRequest() error = %v", err)
	}
	if url != svc.url {
		t.Errorf("url = %q, want %q", url, svc.url)
	}
	if len(svc.created) != 2 {
		t.Fatalf("created %d PRs, want 2 (main then master)", len(svc.created))
	}
	if svc.created[1].GetBase() != "master" {
		t.Errorf("retry base = %q, want master", svc.created[1].GetBase())
	}
}

func TestCreatePullRequest_NoFallbackOnOtherErrors(t *testing.T) {
	svc := &fakePRService{
		failBases: map[string]error{"main": errors.New("network down")},
	}
	c := &Client{prs: svc, owner: "owner", repo: "project"}

	if _, err := c.CreatePullRequest(context.Background(), "feature", "main", "title", "body"); err == nil {
		t.Fatal("CreatePullRequest() should propagate non-422 errors")
	}
	if len(svc.created) != 1 {
		t.Errorf("created %d PRs, want 1 (no retry)", len(svc.created))
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := NewClient("", "owner", "project"); err == nil {
		t.Error("NewClient() with an empty token should fail")
	}
}
