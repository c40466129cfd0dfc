package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/adapters/memory"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/gate"
	"github.com/JonnyTran/heydev/pkg/ports"
	"github.com/JonnyTran/heydev/pkg/session"
)

// --- fakes ---

type fakeAnalyzer struct {
	analysis *ports.Analysis
	err      error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, req ports.AnalysisRequest, progress ports.ProgressFunc) (*ports.Analysis, error) {
	if progress != nil {
		progress(ctx, "Analyzing repository...")
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.analysis, nil
}

type fakeDrafter struct {
	err error
}

func (d *fakeDrafter) Draft(ctx context.Context, topic domain.Topic, progress ports.ProgressFunc) (*ports.DraftSet, error) {
	if d.err != nil {
		return nil, d.err
	}
	kind := domain.KindBlogPost
	if len(topic.ContentTypes) > 0 {
		kind = topic.ContentTypes[0]
	}
	content := fmt.Sprintf("Article about %s", topic.Title)
	return &ports.DraftSet{
		Drafts: map[domain.ContentKind]string{kind: content},
		Record: domain.ContentRecord{
			Channel: domain.ChannelBlog,
			Title:   topic.Title,
			Summary: topic.Description,
			Content: content,
			Type:    kind,
		},
	}, nil
}

type fakePublisher struct {
	id        int64
	err       error
	published []domain.ContentRecord
}

func (p *fakePublisher) Publish(ctx context.Context, rec domain.ContentRecord) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.published = append(p.published, rec)
	return p.id, nil
}

func sampleTopics() []domain.Topic {
	return []domain.Topic{
		{Title: "Widget v2 ships", Description: "Release roundup", SourceType: domain.SourceCommit, SourceID: "abc123", ContentTypes: []domain.ContentKind{domain.KindBlogPost}},
		{Title: "Fixing the widget race", Description: "PR deep dive", SourceType: domain.SourcePR, SourceID: "42", ContentTypes: []domain.ContentKind{domain.KindCodeExample}},
	}
}

type harness struct {
	flow      *Flow
	sessions  *session.Manager
	publisher *fakePublisher
	done      chan error
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()

	sessions := session.NewManager(memory.NewStore())
	publisher := &fakePublisher{id: 7}
	cfg := Config{
		Sessions:  sessions,
		Analyzer:  &fakeAnalyzer{analysis: &ports.Analysis{Topics: sampleTopics()}},
		Drafter:   &fakeDrafter{},
		Publisher: publisher,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &harness{
		flow:      New("test-session", cfg),
		sessions:  sessions,
		publisher: publisher,
		done:      make(chan error, 1),
	}
}

func (h *harness) run(ctx context.Context) {
	go func() {
		h.done <- h.flow.Run(ctx)
	}()
}

func (h *harness) waitDone(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("flow did not finish")
		return nil
	}
}

func (h *harness) state(t *testing.T) *domain.State {
	t.Helper()
	st, err := h.sessions.Load(context.Background(), "test-session")
	require.NoError(t, err)
	return st
}

// awaitGate waits until a gate for the given action opens.
func awaitGate(t *testing.T, b *gate.Board, action string) *gate.Gate {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case g := <-b.Notify():
			if g.Action() == action {
				return g
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s gate", action)
		}
	}
}

// --- tests ---

func TestFlow_HappyPath(t *testing.T) {
	h := newHarness(t, nil)
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))

	// Gate 1 resolution committed exactly the given URL; no topics yet.
	g = awaitGate(t, b, ActionSetDateRange)
	st := h.state(t)
	assert.Equal(t, "https://github.com/acme/widget", st.RepoURL)
	assert.Empty(t, st.Topics)

	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))

	g = awaitGate(t, b, ActionSelectTopic)
	st = h.state(t)
	assert.Equal(t, "2025-05-10", st.StartDate)
	require.Len(t, st.Topics, 2)

	// Selecting index 1 selects exactly topics[1].
	require.NoError(t, b.Respond(g.ID(), 1))

	g = awaitGate(t, b, ActionConfirmContent)
	st = h.state(t)
	require.NotNil(t, st.SelectedTopic)
	assert.Equal(t, "Fixing the widget race", st.SelectedTopic.Title)
	assert.Equal(t, domain.KindCodeExample, st.ContentRecord.Type)
	assert.NotEmpty(t, st.ContentDrafts[domain.KindCodeExample])

	require.NoError(t, b.Respond(g.ID(), ResponseConfirm))
	require.NoError(t, h.waitDone(t))

	st = h.state(t)
	assert.True(t, st.Confirmed)
	assert.EqualValues(t, 7, st.ContentRecord.ID)
	assert.Contains(t, st.Status, "ID: 7")
	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, "Fixing the widget race", h.publisher.published[0].Title)
}

func TestFlow_StaleTopicIndexKeepsGateOpen(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.Analyzer = &fakeAnalyzer{analysis: &ports.Analysis{Topics: sampleTopics()[:1]}}
	})
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))

	g = awaitGate(t, b, ActionSelectTopic)

	// Out-of-bounds index fails with StaleResponseError; nothing selected.
	var stale *domain.StaleResponseError
	err := b.Respond(g.ID(), 5)
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, gate.StatusPending, g.Status())
	assert.Nil(t, h.state(t).SelectedTopic)

	// A corrected response resolves the same instance.
	require.NoError(t, b.Respond(g.ID(), 0))
	g = awaitGate(t, b, ActionConfirmContent)
	assert.Equal(t, "Widget v2 ships", h.state(t).SelectedTopic.Title)

	require.NoError(t, b.Respond(g.ID(), ResponseConfirm))
	require.NoError(t, h.waitDone(t))
}

// slicingStore truncates the topic list on one specific Load, simulating a
// client snapshot racing the agent between gate resolution and commit.
type slicingStore struct {
	ports.StateStore
	mu    sync.Mutex
	after int // Loads to pass through before truncating; -1 when idle
}

func (s *slicingStore) arm(after int) {
	s.mu.Lock()
	s.after = after
	s.mu.Unlock()
}

func (s *slicingStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	state, err := s.StateStore.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.after < 0:
	case s.after == 0:
		state.Topics = state.Topics[:1]
		s.after = -1
	default:
		s.after--
	}
	return state, nil
}

func TestFlow_TopicShrinkBeforeCommitReopensGate(t *testing.T) {
	store := &slicingStore{StateStore: memory.NewStore(), after: -1}
	sessions := session.NewManager(store)
	f := New("test-session", Config{
		Sessions:  sessions,
		Analyzer:  &fakeAnalyzer{analysis: &ports.Analysis{Topics: sampleTopics()}},
		Drafter:   &fakeDrafter{},
		Publisher: &fakePublisher{id: 7},
	})
	b := f.Board()
	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background()) }()

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))

	g = awaitGate(t, b, ActionSelectTopic)
	first := g.ID()

	// The resolution-time check sees the full list; the commit read sees
	// a single topic, so index 1 goes stale between the two.
	store.arm(1)
	require.NoError(t, b.Respond(first, 1))

	// The session survives: the gate re-opens as a fresh instance with
	// nothing selected and no error recorded.
	g = awaitGate(t, b, ActionSelectTopic)
	assert.NotEqual(t, first, g.ID())
	st, err := sessions.Load(context.Background(), "test-session")
	require.NoError(t, err)
	assert.Nil(t, st.SelectedTopic)
	assert.Empty(t, st.Error)

	require.NoError(t, b.Respond(g.ID(), 1))
	g = awaitGate(t, b, ActionConfirmContent)
	require.NoError(t, b.Respond(g.ID(), ResponseConfirm))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("flow did not finish")
	}

	st, err = sessions.Load(context.Background(), "test-session")
	require.NoError(t, err)
	require.NotNil(t, st.SelectedTopic)
	assert.Equal(t, "Fixing the widget race", st.SelectedTopic.Title)
}

func TestFlow_CancelReentersConfirmGate(t *testing.T) {
	h := newHarness(t, nil)
	b := h.flow.Board()
	ctx := context.Background()
	h.run(ctx)

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))
	g = awaitGate(t, b, ActionSelectTopic)
	require.NoError(t, b.Respond(g.ID(), 0))

	first := awaitGate(t, b, ActionConfirmContent)
	require.NoError(t, b.Respond(first.ID(), ResponseCancel))

	// CANCEL re-enters the same stage with a fresh gate instance.
	second := awaitGate(t, b, ActionConfirmContent)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.False(t, h.state(t).Confirmed, "CANCEL leaves the record unconfirmed")

	// The record stays mutable: apply a client edit, then confirm.
	edited := h.state(t)
	edited.ContentRecord.Title = "Edited by human"
	require.NoError(t, h.sessions.Apply(ctx, "test-session", edited))

	// A stale handle from the first instance must not resolve the second.
	assert.ErrorIs(t, b.Respond(first.ID(), ResponseConfirm), domain.ErrAlreadyResponded)

	require.NoError(t, b.Respond(second.ID(), ResponseConfirm))
	require.NoError(t, h.waitDone(t))

	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, "Edited by human", h.publisher.published[0].Title)
	assert.True(t, h.state(t).Confirmed)
}

func TestFlow_InvalidSentinelRejected(t *testing.T) {
	h := newHarness(t, nil)
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))
	g = awaitGate(t, b, ActionSelectTopic)
	require.NoError(t, b.Respond(g.ID(), 0))

	g = awaitGate(t, b, ActionConfirmContent)
	assert.Error(t, b.Respond(g.ID(), "yes"), "only the sentinels resolve the confirm gate")
	assert.Equal(t, gate.StatusPending, g.Status())

	require.NoError(t, b.Respond(g.ID(), ResponseConfirm))
	require.NoError(t, h.waitDone(t))
}

func TestFlow_BadDateShapeRejected(t *testing.T) {
	h := newHarness(t, nil)
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))

	g = awaitGate(t, b, ActionSetDateRange)
	assert.Error(t, b.Respond(g.ID(), "May 10th"))
	assert.Equal(t, gate.StatusPending, g.Status())
	assert.Empty(t, h.state(t).StartDate)

	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))
	awaitGate(t, b, ActionSelectTopic)
}

func TestFlow_AnalysisErrorFailStop(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.Analyzer = &fakeAnalyzer{err: errors.New("GitHub API error: 403")}
	})
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))

	err := h.waitDone(t)
	var analysisErr *domain.AnalysisError
	require.ErrorAs(t, err, &analysisErr)

	st := h.state(t)
	assert.Contains(t, st.Error, "GitHub API error")
	assert.Empty(t, st.Status, "error suppresses status")

	// Fail-stop: no topic gate was ever opened.
	_, pending := b.Pending()
	assert.False(t, pending)
}

func TestFlow_PersistenceErrorFailStop(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.Publisher = &fakePublisher{err: errors.New("connection refused")}
	})
	b := h.flow.Board()
	h.run(context.Background())

	g := awaitGate(t, b, ActionSetRepo)
	require.NoError(t, b.Respond(g.ID(), "https://github.com/acme/widget"))
	g = awaitGate(t, b, ActionSetDateRange)
	require.NoError(t, b.Respond(g.ID(), "2025-05-10"))
	g = awaitGate(t, b, ActionSelectTopic)
	require.NoError(t, b.Respond(g.ID(), 0))
	g = awaitGate(t, b, ActionConfirmContent)
	require.NoError(t, b.Respond(g.ID(), ResponseConfirm))

	err := h.waitDone(t)
	var persistErr *domain.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Contains(t, h.state(t).Error, "connection refused")
}

func TestFlow_GateTimeout(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.GateTimeout = 30 * time.Millisecond
	})
	h.run(context.Background())

	err := h.waitDone(t)
	assert.ErrorIs(t, err, domain.ErrGateCancelled)
	assert.ErrorIs(t, err, domain.ErrGateTimeout)
	assert.NotEmpty(t, h.state(t).Error)
}

func TestFlow_AbortCancelsPendingGate(t *testing.T) {
	h := newHarness(t, nil)
	b := h.flow.Board()
	ctx, cancel := context.WithCancel(context.Background())
	h.run(ctx)

	g := awaitGate(t, b, ActionSetRepo)
	cancel()

	err := h.waitDone(t)
	assert.ErrorIs(t, err, domain.ErrGateCancelled)

	// A late response must not mutate state.
	assert.ErrorIs(t, b.Respond(g.ID(), "https://github.com/acme/widget"), domain.ErrAlreadyResponded)
	assert.Empty(t, h.state(t).RepoURL)
}

func TestHub_Lifecycle(t *testing.T) {
	sessions := session.NewManager(memory.NewStore())
	hub := NewHub(Config{
		Sessions:  sessions,
		Analyzer:  &fakeAnalyzer{analysis: &ports.Analysis{Topics: sampleTopics()}},
		Drafter:   &fakeDrafter{},
		Publisher: &fakePublisher{id: 1},
	})
	ctx := context.Background()

	require.NoError(t, hub.Start(ctx, "s1"))
	assert.Error(t, hub.Start(ctx, "s1"), "double start is rejected")

	board, err := hub.Board("s1")
	require.NoError(t, err)
	g := awaitGate(t, board, ActionSetRepo)

	// The hub routes responses by session and gate instance.
	require.NoError(t, hub.Respond("s1", g.ID(), "https://github.com/acme/widget"))
	awaitGate(t, board, ActionSetDateRange)

	pendingGate, ok, err := hub.Pending("s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ActionSetDateRange, pendingGate.Action())

	require.NoError(t, hub.Abort("s1"))
	err = hub.Wait(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrGateCancelled)

	// Unknown sessions are reported as such.
	_, _, err = hub.Pending("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
