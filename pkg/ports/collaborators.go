package ports

import (
	"context"

	"github.com/JonnyTran/heydev/pkg/domain"
)

// ProgressFunc receives human-readable progress messages while a
// collaborator works. Implementations forward them to the session's
// status channel so the client can render live updates.
type ProgressFunc func(ctx context.Context, msg string)

// AnalysisRequest identifies what to analyze.
type AnalysisRequest struct {
	RepoURL   string
	StartDate string // YYYY-MM-DD
}

// Analysis is everything the analyzer learned about the repository,
// including the ordered candidate topics derived from it.
type Analysis struct {
	Commits      []domain.Commit
	Issues       []domain.Issue
	PullRequests []domain.PullRequest
	DocChanges   []domain.DocChange

	Topics []domain.Topic
}

// Analyzer inspects a repository's recent history and proposes content
// topics. Failures surface as domain.AnalysisError in the flow.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest, progress ProgressFunc) (*Analysis, error)
}

// DraftSet is the drafter's output: one draft per suitable content kind and
// the initial record handed to the human for editing.
type DraftSet struct {
	Drafts map[domain.ContentKind]string
	Record domain.ContentRecord
}

// Drafter produces content drafts for a selected topic.
type Drafter interface {
	Draft(ctx context.Context, topic domain.Topic, progress ProgressFunc) (*DraftSet, error)
}

// Publisher persists a finalized content record. It is only called after
// the human confirmed publication; it returns the assigned record ID.
// Failures surface as domain.PersistenceError in the flow.
type Publisher interface {
	Publish(ctx context.Context, rec domain.ContentRecord) (int64, error)
}
