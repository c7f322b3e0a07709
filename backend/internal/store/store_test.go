package store

import (
	"context"
	"path/filepath"
	"testing"

	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCommunity() *socialgraph.Community {
	alice := socialgraph.Author{ID: "1", Name: "alice"}
	bob := socialgraph.Author{ID: "2", Name: "bob"}
	return &socialgraph.Community{
		ID:   "s1",
		Name: "ex server",
		Channels: []socialgraph.Channel{
			{ID: "c2", Name: "random", Messages: []socialgraph.Message{
				{Author: bob, Server: "ex server", Channel: "random", Timestamp: "2018-11-11 11:25:15.000000", Content: "yo", Mentions: []socialgraph.Author{alice, bob}},
				{Author: alice, Server: "ex server", Channel: "random", Timestamp: "2018-11-11 11:25:17.000000", Content: "hey", Mentions: []socialgraph.Author{}},
			}},
			{ID: "c1", Name: "general", Messages: []socialgraph.Message{}},
		},
	}
}

func TestSaveAndLoadCommunity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := sampleCommunity()

	require.NoError(t, s.SaveCommunity(ctx, want))

	got, err := s.LoadCommunity(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveCommunity_ReplacesSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := sampleCommunity()
	require.NoError(t, s.SaveCommunity(ctx, c))

	c.Channels = c.Channels[:1]
	c.Channels[0].Messages = c.Channels[0].Messages[1:]
	require.NoError(t, s.SaveCommunity(ctx, c))

	got, err := s.LoadCommunity(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Channels, 1)
	assert.Len(t, got.Channels[0].Messages, 1)

	summaries, err := s.ListCommunities(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Channels)
	assert.Equal(t, 1, summaries[0].Messages)
	assert.False(t, summaries[0].ScrapedAt.IsZero())
}

func TestLoadCommunity_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadCommunity(context.Background(), "missing")

	var notFound *apperrors.ErrSnapshotNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSnapshotAggregatesLikeOriginal(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := sampleCommunity()
	require.NoError(t, s.SaveCommunity(ctx, c))

	loaded, err := s.LoadCommunity(ctx, c.ID)
	require.NoError(t, err)

	e := socialgraph.NewEngine(socialgraph.WithLogger(zap.NewNop()))
	assert.Equal(t, e.Aggregate(*c).Edges(), e.Aggregate(*loaded).Edges())
}
