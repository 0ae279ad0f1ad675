// Package github handles pull request creation against the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v84/github"
)

// Client creates pull requests for a single repository.
type Client struct {
	prs   PullRequestService
	owner string
	repo  string
}

// PullRequestService is the slice of the GitHub API the client uses.
// Narrowed to an interface so tests can fake the network.
type PullRequestService interface {
	Create(ctx context.Context, owner, repo string, pull *gh.NewPullRequest) (*gh.PullRequest, *gh.Response, error)
}

// NewClient creates a GitHub client for the given repository using a
// personal access token.
func NewClient(token, owner, repo string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not configured; set GITHUB_TOKEN")
	}
	client := gh.NewClient(nil).WithAuthToken(token)
	return &Client{
		prs:   client.PullRequests,
		owner: owner,
		repo:  repo,
	}, nil
}

// ParseRepoURL extracts the owner and repository name from a GitHub URL
// in https or ssh form.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	path := repoURL
	switch {
	case strings.HasPrefix(path, "https://github.com/"):
		path = strings.TrimPrefix(path, "https://github.com/")
	case strings.HasPrefix(path, "http://github.com/"):
		path = strings.TrimPrefix(path, "http://github.com/")
	case strings.HasPrefix(path, "git@github.com:"):
		path = strings.TrimPrefix(path, "git@github.com:")
	default:
		return "", "", fmt.Errorf("unsupported repository URL: %s", repoURL)
	}

	path = strings.TrimSuffix(strings.TrimSuffix(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL %s is not owner/repo form", repoURL)
	}
	return parts[0], parts[1], nil
}

// CreatePullRequest opens a PR from head into base and returns its HTML
// URL. When base is "main" and the API rejects it as unprocessable, the
// call is retried against "master".
func (c *Client) CreatePullRequest(ctx context.Context, head, base, title, body string) (string, error) {
	url, err := c.tryCreate(ctx, head, base, title, body)
	if err == nil {
		return url, nil
	}

	if base == "main" && isUnprocessable(err) {
		url, retryErr := c.tryCreate(ctx, head, "master", title, body)
		if retryErr == nil {
			return url, nil
		}
		return "", fmt.Errorf("create pull request against main and master: %w", retryErr)
	}
	return "", fmt.Errorf("create pull request: %w", err)
}

func (c *Client) tryCreate(ctx context.Context, head, base, title, body string) (string, error) {
	pr, _, err := c.prs.Create(ctx, c.owner, c.repo, &gh.NewPullRequest{
		Title: gh.Ptr(title),
		Head:  gh.Ptr(head),
		Base:  gh.Ptr(base),
		Body:  gh.Ptr(body),
	})
	if err != nil {
		return "", err
	}
	return pr.GetHTMLURL(), nil
}

// isUnprocessable reports whether the API rejected the request as a 422,
// which is what a nonexistent base branch produces.
func isUnprocessable(err error) bool {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// PRBody renders the standard pull request description.
func PRBody(prompt, validationSummary string, commitHash string) string {
	var sb strings.Builder
	sb.WriteString("## Automated Change\n\n")
	fmt.Fprintf(&sb, "**Request:** %s\n\n", prompt)
	if validationSummary != "" {
		fmt.Fprintf(&sb, "**Validation:** %s\n\n", validationSummary)
	}
	if commitHash != "" {
		fmt.Fprintf(&sb, "Commit: `%s`\n", commitHash)
	}
	return sb.String()
}
