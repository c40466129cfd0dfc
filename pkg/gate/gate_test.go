package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/domain"
)

func TestGate_RespondResolvesAwait(t *testing.T) {
	g := New("set_github_repo")
	assert.Equal(t, StatusPending, g.Status())

	go func() {
		err := g.Respond("https://github.com/acme/widget")
		assert.NoError(t, err)
	}()

	v, err := g.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widget", v)
	assert.Equal(t, StatusResolved, g.Status())
}

func TestGate_SecondRespondFails(t *testing.T) {
	g := New("set_github_repo")

	require.NoError(t, g.Respond("first"))
	err := g.Respond("second")
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)

	// Only the first value is ever delivered.
	v, err := g.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestGate_CancelledGateNeverResolves(t *testing.T) {
	g := New("select_topic")

	assert.True(t, g.Cancel())
	assert.False(t, g.Cancel(), "second cancel is a no-op")
	assert.Equal(t, StatusCancelled, g.Status())

	err := g.Respond(1)
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)

	_, err = g.Await(context.Background())
	assert.ErrorIs(t, err, domain.ErrGateCancelled)
}

func TestGate_CheckFailureKeepsPending(t *testing.T) {
	g := New("select_topic", WithCheck(func(value any) error {
		idx, ok := value.(int)
		if !ok || idx != 0 {
			return &domain.StaleResponseError{Action: "select_topic", Reason: "index out of bounds"}
		}
		return nil
	}))

	var stale *domain.StaleResponseError
	err := g.Respond(5)
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, StatusPending, g.Status(), "failed check leaves the gate open")

	// A corrected response still resolves the same instance.
	require.NoError(t, g.Respond(0))
	v, err := g.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestGate_AwaitTimeout(t *testing.T) {
	g := New("confirm_content", WithTimeout(20*time.Millisecond))

	_, err := g.Await(context.Background())
	assert.ErrorIs(t, err, domain.ErrGateCancelled)
	assert.ErrorIs(t, err, domain.ErrGateTimeout)
	assert.Equal(t, StatusCancelled, g.Status())
}

func TestGate_AwaitContextCancel(t *testing.T) {
	g := New("confirm_content")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := g.Await(ctx)
		done <- err
	}()

	cancel()
	err := <-done
	assert.ErrorIs(t, err, domain.ErrGateCancelled)

	// Late responses are rejected, not applied.
	assert.ErrorIs(t, g.Respond("CONFIRM"), domain.ErrAlreadyResponded)
}

func TestBoard_SinglePendingInvariant(t *testing.T) {
	b := NewBoard()

	first := New("set_github_repo")
	require.NoError(t, b.Open(first))

	err := b.Open(New("set_date_range"))
	assert.ErrorIs(t, err, domain.ErrGatePending)

	// Resolving the first frees the slot.
	require.NoError(t, first.Respond("https://github.com/acme/widget"))
	assert.NoError(t, b.Open(New("set_date_range")))
}

func TestBoard_RespondRoutesByInstance(t *testing.T) {
	b := NewBoard()

	first := New("select_topic")
	require.NoError(t, b.Open(first))
	require.NoError(t, first.Respond(0))

	// Re-entering the same action creates a fresh instance; a stale handle
	// from the previous instance must not resolve it.
	second := New("select_topic")
	require.NoError(t, b.Open(second))

	err := b.Respond(first.ID(), 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)
	assert.Equal(t, StatusPending, second.Status())

	require.NoError(t, b.Respond(second.ID(), 1))
	assert.Equal(t, StatusResolved, second.Status())
}

func TestBoard_RespondWithoutGate(t *testing.T) {
	b := NewBoard()
	assert.ErrorIs(t, b.Respond("anything", 1), domain.ErrNoPendingGate)
}

func TestBoard_NotifyAnnouncesOpens(t *testing.T) {
	b := NewBoard()
	g := New("set_github_repo", WithPrompt("Which repository should I analyze?"))
	require.NoError(t, b.Open(g))

	select {
	case got := <-b.Notify():
		assert.Equal(t, g.ID(), got.ID())
		assert.Equal(t, "Which repository should I analyze?", got.Prompt())
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}
