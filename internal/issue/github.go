package issue

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

// DefaultAPI is the GitHub REST endpoint.
const DefaultAPI = "https://api.github.com"

// Issue is the subset of a GitHub issue the submission flow reads.
type Issue struct {
	Number int
	Title  string
	Body   string
	State  string
}

// GitHub talks to the issues API of a single repository.
type GitHub struct {
	client *github.Client
	owner  string
	name   string
}

// NewGitHub creates a client for repo ("owner/name") authenticated with token.
func NewGitHub(repo, token string, httpClient *http.Client) (*GitHub, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("repository %q is not owner/name", repo)
	}
	return &GitHub{
		client: github.NewClient(httpClient).WithAuthToken(token),
		owner:  owner,
		name:   name,
	}, nil
}

// SetBaseURL points the client at a GitHub Enterprise API root. An empty
// url or the public endpoint leaves the client unchanged.
func (g *GitHub) SetBaseURL(api string) error {
	if api == "" || strings.TrimRight(api, "/") == DefaultAPI {
		return nil
	}
	c, err := g.client.WithEnterpriseURLs(api, api)
	if err != nil {
		return fmt.Errorf("api url %s: %w", api, err)
	}
	g.client = c
	return nil
}

// Get fetches an issue.
func (g *GitHub) Get(ctx context.Context, number int) (Issue, error) {
	is, _, err := g.client.Issues.Get(ctx, g.owner, g.name, number)
	if err != nil {
		return Issue{}, fmt.Errorf("get issue #%d: %w", number, err)
	}
	return Issue{
		Number: is.GetNumber(),
		Title:  is.GetTitle(),
		Body:   is.GetBody(),
		State:  is.GetState(),
	}, nil
}

// Comment posts body as a new comment on an issue.
func (g *GitHub) Comment(ctx context.Context, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.name, number, &github.IssueComment{Body: github.String(body)})
	if err != nil {
		return fmt.Errorf("comment on issue #%d: %w", number, err)
	}
	return nil
}

// Close marks an issue closed.
func (g *GitHub) Close(ctx context.Context, number int) error {
	_, _, err := g.client.Issues.Edit(ctx, g.owner, g.name, number, &github.IssueRequest{State: github.String("closed")})
	if err != nil {
		return fmt.Errorf("close issue #%d: %w", number, err)
	}
	return nil
}
