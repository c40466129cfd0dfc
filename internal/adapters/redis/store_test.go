package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/internal/adapters/redis"
	"github.com/JonnyTran/heydev/pkg/domain"
	"github.com/JonnyTran/heydev/pkg/ports"
)

func newTestStore(t *testing.T, opts ...redis.Option) *redis.Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...)
}

func TestRedisStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, newTestStore(t))
}

func TestRedisStore_RoundTripsDocument(t *testing.T) {
	store := newTestStore(t, redis.WithPrefix("test:session:"), redis.WithTTL(time.Hour))
	ctx := context.Background()

	state := domain.NewState()
	state.RepoURL = "https://github.com/acme/widget"
	state.Topics = []domain.Topic{{
		Title:        "Fixing the widget race",
		SourceType:   domain.SourcePR,
		SourceID:     "42",
		ContentTypes: []domain.ContentKind{domain.KindBlogPost, domain.KindSocialMedia},
	}}
	state.ContentDrafts[domain.KindBlogPost] = "# Draft"
	state.SetStatus("Found 1 pull request")

	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state.RepoURL, loaded.RepoURL)
	require.Len(t, loaded.Topics, 1)
	assert.Equal(t, domain.SourcePR, loaded.Topics[0].SourceType)
	assert.Equal(t, "# Draft", loaded.ContentDrafts[domain.KindBlogPost])
	assert.Equal(t, "Found 1 pull request", loaded.Status)
}
