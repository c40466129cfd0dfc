// Package analyze turns raw repository history into proposed content topics.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonnyTran/heydev/internal/github"
	"github.com/JonnyTran/heydev/internal/logging"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/ports"
)

const maxTopics = 5

// HistoryClient is the slice of the GitHub client the analyzer consumes.
type HistoryClient interface {
	CommitsSince(ctx context.Context, repo, since string) ([]domain.Commit, error)
	IssuesSince(ctx context.Context, repo, since string) ([]domain.Issue, error)
	PullRequestsSince(ctx context.Context, repo, since string) ([]domain.PullRequest, error)
	DocChanges(ctx context.Context, repo string, commits []domain.Commit) ([]domain.DocChange, error)
}

type Analyzer struct {
	client HistoryClient
	logger *slog.Logger
}

type Option func(*Analyzer)

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func New(client HistoryClient, opts ...Option) *Analyzer {
	a := &Analyzer{client: client, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches the repository's recent history and derives topics from
// it. Each fetch phase reports progress so the client can narrate the wait.
func (a *Analyzer) Analyze(ctx context.Context, req ports.AnalysisRequest, progress ports.ProgressFunc) (*ports.Analysis, error) {
	repo, err := github.ParseRepoURL(req.RepoURL)
	if err != nil {
		return nil, err
	}

	report := func(msg string) {
		if progress != nil {
			progress(ctx, msg)
		}
	}

	report("Analyzing repository...")

	commits, err := a.client.CommitsSince(ctx, repo, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("fetching commits: %w", err)
	}
	report(fmt.Sprintf("Found %d commits", len(commits)))

	issues, err := a.client.IssuesSince(ctx, repo, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("fetching issues: %w", err)
	}
	report(fmt.Sprintf("Found %d issues", len(issues)))

	pulls, err := a.client.PullRequestsSince(ctx, repo, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("fetching pull requests: %w", err)
	}
	report(fmt.Sprintf("Found %d pull requests", len(pulls)))

	docs, err := a.client.DocChanges(ctx, repo, commits)
	if err != nil {
		return nil, fmt.Errorf("fetching documentation changes: %w", err)
	}
	report(fmt.Sprintf("Found %d documentation changes", len(docs)))

	topics := deriveTopics(repo, commits, pulls, docs)
	a.logger.Info("analysis complete", "repo", repo,
		"commits", len(commits), "issues", len(issues),
		"pulls", len(pulls), "doc_changes", len(docs), "topics", len(topics))

	return &ports.Analysis{
		Commits:      commits,
		Issues:       issues,
		PullRequests: pulls,
		DocChanges:   docs,
		Topics:       topics,
	}, nil
}

// deriveTopics ranks history items into at most maxTopics proposals. Pull
// requests make the strongest stories, then feature commits, then
// documentation updates.
func deriveTopics(repo string, commits []domain.Commit, pulls []domain.PullRequest, docs []domain.DocChange) []domain.Topic {
	var topics []domain.Topic

	for _, pr := range pulls {
		if len(topics) >= maxTopics {
			return topics
		}
		topics = append(topics, domain.Topic{
			Title:        pr.Title,
			Description:  fmt.Sprintf("Deep dive into %s pull request #%d", repo, pr.Number),
			SourceType:   domain.SourcePR,
			SourceID:     fmt.Sprintf("%d", pr.Number),
			ContentTypes: []domain.ContentKind{domain.KindBlogPost, domain.KindCodeExample},
		})
	}

	for _, c := range commits {
		if len(topics) >= maxTopics {
			return topics
		}
		title := headline(c.Message)
		if title == "" || strings.HasPrefix(title, "Merge ") {
			continue
		}
		topics = append(topics, domain.Topic{
			Title:        title,
			Description:  fmt.Sprintf("What changed in %s and why it matters", repo),
			SourceType:   domain.SourceCommit,
			SourceID:     c.SHA,
			ContentTypes: []domain.ContentKind{domain.KindBlogPost, domain.KindSocialMedia},
		})
	}

	for _, d := range docs {
		if len(topics) >= maxTopics {
			return topics
		}
		topics = append(topics, domain.Topic{
			Title:        fmt.Sprintf("Docs refresh: %s", headline(d.Message)),
			Description:  fmt.Sprintf("Updated guides in %s (%s)", repo, strings.Join(d.Files, ", ")),
			SourceType:   domain.SourceDoc,
			SourceID:     d.CommitSHA,
			ContentTypes: []domain.ContentKind{domain.KindSocialMedia},
		})
	}

	return topics
}

// headline returns the first line of a commit message.
func headline(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}
