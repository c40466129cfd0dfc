package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/domain"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState()
		state.RepoURL = "https://github.com/acme/widget"
		state.StartDate = "2025-05-10"
		state.Topics = []domain.Topic{{
			Title:        "Widget v2 release",
			SourceType:   domain.SourceCommit,
			SourceID:     "abc123",
			ContentTypes: []domain.ContentKind{domain.KindBlogPost},
		}}

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.RepoURL, loaded.RepoURL)
		assert.Equal(t, state.StartDate, loaded.StartDate)
		require.Len(t, loaded.Topics, 1)
		assert.Equal(t, "Widget v2 release", loaded.Topics[0].Title)
	})

	t.Run("Save replaces whole document", func(t *testing.T) {
		first := domain.NewState()
		first.RepoURL = "https://github.com/acme/widget"
		first.SetStatus("analyzing")
		require.NoError(t, store.Save(ctx, sessionID, first))

		second := domain.NewState()
		second.RepoURL = "https://github.com/acme/gadget"
		require.NoError(t, store.Save(ctx, sessionID, second))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/acme/gadget", loaded.RepoURL)
		assert.Empty(t, loaded.Status, "no field-level merge with the previous snapshot")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState())
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState())
		_ = store.Save(ctx, id2, domain.NewState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
