package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyTran/heydev/pkg/domain"
)

func newPublisher(t *testing.T) *Publisher {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPublisher_PublishAssignsIncreasingIDs(t *testing.T) {
	p := newPublisher(t)
	ctx := context.Background()

	rec := domain.ContentRecord{
		Channel: domain.ChannelBlog,
		Title:   "Streaming support",
		Summary: "How the new streaming API works",
		Content: "# Streaming support\n...",
		Type:    domain.KindBlogPost,
	}

	first, err := p.Publish(ctx, rec)
	require.NoError(t, err)
	second, err := p.Publish(ctx, rec)
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestPublisher_RoundTrip(t *testing.T) {
	p := newPublisher(t)
	ctx := context.Background()

	want := domain.ContentRecord{
		Channel: domain.ChannelTwitter,
		Title:   "Widget v2",
		Summary: "Release notes",
		Content: "Widget v2 is out!",
		Type:    domain.KindSocialMedia,
	}
	id, err := p.Publish(ctx, want)
	require.NoError(t, err)

	got, err := p.Load(ctx, id)
	require.NoError(t, err)
	want.ID = id
	assert.Equal(t, want, *got)
}

func TestPublisher_LoadMissing(t *testing.T) {
	p := newPublisher(t)
	_, err := p.Load(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
