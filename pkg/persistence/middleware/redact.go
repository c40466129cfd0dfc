package middleware

import (
	"context"
	"regexp"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/ports"
)

// DefaultRedactPatterns match GitHub access tokens and email addresses,
// the two kinds of secrets most likely to leak into drafted content.
var DefaultRedactPatterns = []string{
	`gh[pousr]_[A-Za-z0-9]{20,}`,
	`github_pat_[A-Za-z0-9_]{20,}`,
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
}

const redactMask = "***"

type redactMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware returns a middleware that masks pattern matches in
// the human-visible text of a session document before it is persisted.
// The in-memory document handed to Save is left untouched; patterns must
// be valid regular expressions or the constructor panics.
func NewRedactMiddleware(patterns []string) Middleware {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &redactMiddleware{next: next, patterns: compiled}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	cloned := state.Clone()

	for kind, draft := range cloned.ContentDrafts {
		cloned.ContentDrafts[kind] = m.mask(draft)
	}
	cloned.ContentRecord.Title = m.mask(cloned.ContentRecord.Title)
	cloned.ContentRecord.Summary = m.mask(cloned.ContentRecord.Summary)
	cloned.ContentRecord.Content = m.mask(cloned.ContentRecord.Content)
	cloned.Status = m.mask(cloned.Status)
	cloned.Error = m.mask(cloned.Error)

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, redactMask)
	}
	return s
}
