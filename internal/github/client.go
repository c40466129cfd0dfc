// Package github is a minimal GitHub REST v3 client covering the repository
// history endpoints the analyzer needs.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonnyTran/heydev/pkg/domain"
)

const defaultBaseURL = "https://api.github.com"

// docSuffixes marks the files whose changes count as documentation work.
var docSuffixes = []string{".md", ".mdx", ".txt", "CHANGELOG", "README"}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithToken sets the personal access token sent with every request.
// Unauthenticated requests work but hit GitHub's anonymous rate limit fast.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseRepoURL extracts "owner/repo" from a repository URL or a bare
// owner/repo slug.
func ParseRepoURL(raw string) (string, error) {
	s := strings.TrimSuffix(strings.TrimRight(raw, "/"), ".git")
	if i := strings.Index(s, "github.com/"); i >= 0 {
		s = s[i+len("github.com/"):]
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("cannot parse repository from %q", raw)
	}
	return parts[0] + "/" + parts[1], nil
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Files []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

type issueResponse struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	State       string          `json:"state"`
	CreatedAt   time.Time       `json:"created_at"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

type pullResponse struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitsSince lists commits on the default branch authored on or after the
// given YYYY-MM-DD date.
func (c *Client) CommitsSince(ctx context.Context, repo, since string) ([]domain.Commit, error) {
	q := url.Values{}
	q.Set("since", since+"T00:00:00Z")
	q.Set("per_page", "100")

	var raw []commitResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits", repo), q, &raw); err != nil {
		return nil, err
	}

	commits := make([]domain.Commit, 0, len(raw))
	for _, r := range raw {
		commits = append(commits, domain.Commit{
			SHA:     r.SHA,
			Message: r.Commit.Message,
			Author:  r.Commit.Author.Name,
			Date:    r.Commit.Author.Date,
		})
	}
	return commits, nil
}

// IssuesSince lists issues updated on or after the given date. GitHub's
// issues endpoint also returns pull requests; those are dropped here.
func (c *Client) IssuesSince(ctx context.Context, repo, since string) ([]domain.Issue, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("since", since+"T00:00:00Z")
	q.Set("per_page", "100")

	var raw []issueResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/issues", repo), q, &raw); err != nil {
		return nil, err
	}

	var issues []domain.Issue
	for _, r := range raw {
		if r.PullRequest != nil {
			continue
		}
		issues = append(issues, domain.Issue{
			Number:    r.Number,
			Title:     r.Title,
			State:     r.State,
			CreatedAt: r.CreatedAt,
		})
	}
	return issues, nil
}

// PullRequestsSince lists pull requests created on or after the given date.
// The pulls endpoint has no since filter, so recent pulls are fetched and
// filtered by creation date client side.
func (c *Client) PullRequestsSince(ctx context.Context, repo, since string) ([]domain.PullRequest, error) {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("sort", "created")
	q.Set("direction", "desc")
	q.Set("per_page", "100")

	var raw []pullResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls", repo), q, &raw); err != nil {
		return nil, err
	}

	cutoff, err := time.Parse("2006-01-02", since)
	if err != nil {
		return nil, fmt.Errorf("invalid since date %q: %w", since, err)
	}
	var pulls []domain.PullRequest
	for _, r := range raw {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		pulls = append(pulls, domain.PullRequest{
			Number:    r.Number,
			Title:     r.Title,
			State:     r.State,
			CreatedAt: r.CreatedAt,
		})
	}
	return pulls, nil
}

// DocChanges inspects each commit's file list and keeps the commits that
// touched documentation files.
func (c *Client) DocChanges(ctx context.Context, repo string, commits []domain.Commit) ([]domain.DocChange, error) {
	var changes []domain.DocChange
	for _, commit := range commits {
		var detail commitResponse
		if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits/%s", repo, commit.SHA), nil, &detail); err != nil {
			return nil, err
		}

		var docs []string
		for _, f := range detail.Files {
			if isDocFile(f.Filename) {
				docs = append(docs, f.Filename)
			}
		}
		if len(docs) > 0 {
			changes = append(changes, domain.DocChange{
				CommitSHA: commit.SHA,
				Message:   commit.Message,
				Files:     docs,
			})
		}
	}
	return changes, nil
}

func isDocFile(name string) bool {
	for _, suffix := range docSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GitHub API error: %d %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
