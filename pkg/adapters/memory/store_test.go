package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewStore())
}

func TestStore_IsolatesCallers(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state := domain.NewState()
	state.Topics = []domain.Topic{{Title: "original"}}
	require.NoError(t, store.Save(ctx, "s1", state))

	// Mutating the saved pointer must not affect the stored document.
	state.Topics[0].Title = "mutated"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.Topics[0].Title)

	// Mutating a loaded copy must not affect later reads.
	loaded.Topics[0].Title = "mutated again"
	fresh, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Topics[0].Title)
}
