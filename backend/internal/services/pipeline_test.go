package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/socialgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	community *socialgraph.Community
	err       error
	requests  []discord.ScrapeRequest
}

func (m *mockSource) Scrape(ctx context.Context, req discord.ScrapeRequest) (*socialgraph.Community, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.community, nil
}

type mockSnapshots struct {
	saved   []*socialgraph.Community
	saveErr error
}

func (m *mockSnapshots) SaveCommunity(ctx context.Context, c *socialgraph.Community) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, c)
	return nil
}

func (m *mockSnapshots) LoadCommunity(ctx context.Context, serverID string) (*socialgraph.Community, error) {
	for _, c := range m.saved {
		if c.ID == serverID {
			return c, nil
		}
	}
	return nil, errors.New("not found")
}

type mockSink struct {
	graphs []*socialgraph.Graph
	err    error
}

func (m *mockSink) SaveSocialGraph(ctx context.Context, g *socialgraph.Graph) error {
	m.graphs = append(m.graphs, g)
	return m.err
}

var (
	alice = socialgraph.Author{ID: "1", Name: "alice"}
	bob   = socialgraph.Author{ID: "2", Name: "bob"}
)

func testCommunity() *socialgraph.Community {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(offset int) string {
		return base.Add(time.Duration(offset) * time.Second).Format(time.RFC3339)
	}
	return &socialgraph.Community{
		ID:   "42",
		Name: "guild",
		Channels: []socialgraph.Channel{{
			ID:   "c1",
			Name: "general",
			Messages: []socialgraph.Message{
				{Author: alice, Timestamp: at(0)},
				{Author: bob, Timestamp: at(15)},
				{Author: alice, Timestamp: at(60), Mentions: []socialgraph.Author{bob}},
			},
		}},
	}
}

func TestPipeline_Scrape(t *testing.T) {
	source := &mockSource{community: testCommunity()}
	snapshots := &mockSnapshots{}
	p := NewPipeline(source, 0)
	p.SetSnapshotStore(snapshots)

	req := discord.ScrapeRequest{Token: "t", ServerName: "guild"}
	c, err := p.Scrape(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "guild", c.Name)
	assert.Equal(t, []discord.ScrapeRequest{req}, source.requests)
	require.Len(t, snapshots.saved, 1)

	loaded, err := p.Load(context.Background(), "42")
	require.NoError(t, err)
	assert.Same(t, c, loaded)
}

func TestPipeline_Scrape_SnapshotFailureIsNotFatal(t *testing.T) {
	p := NewPipeline(&mockSource{community: testCommunity()}, 0)
	p.SetSnapshotStore(&mockSnapshots{saveErr: errors.New("disk full")})

	c, err := p.Scrape(context.Background(), discord.ScrapeRequest{})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestPipeline_Scrape_SourceError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&mockSource{err: boom}, 0)

	_, err := p.Scrape(context.Background(), discord.ScrapeRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_Load_Disabled(t *testing.T) {
	p := NewPipeline(&mockSource{}, 0)
	_, err := p.Load(context.Background(), "42")
	assert.ErrorIs(t, err, ErrNoSnapshotStore)
}

func TestPipeline_Connections(t *testing.T) {
	p := NewPipeline(&mockSource{}, 0)

	pairs := p.Connections(testCommunity(), 0)
	assert.Equal(t, [][2]string{{"alice", "bob"}, {"alice", "bob"}}, pairs)

	// a 10s window drops the reply at +15s
	assert.Equal(t, [][2]string{{"alice", "bob"}}, p.Connections(testCommunity(), 10*time.Second))
}

func TestPipeline_Connections_Empty(t *testing.T) {
	p := NewPipeline(&mockSource{}, 0)
	pairs := p.Connections(&socialgraph.Community{ID: "1", Name: "x"}, 0)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
}

func TestPipeline_Analyze(t *testing.T) {
	sink := &mockSink{err: errors.New("neo4j down")}
	p := NewPipeline(&mockSource{}, time.Minute)
	p.SetGraphSink(sink)

	g := p.Analyze(context.Background(), testCommunity(), 0)
	require.Len(t, sink.graphs, 1)
	assert.Same(t, g, sink.graphs[0])
	// the default window of one minute also pairs bob (+15) with alice (+60)
	assert.Equal(t, 2, g.Weight(alice.ID, bob.ID))
	assert.Equal(t, 1, g.Weight(bob.ID, alice.ID))
}

func TestPipeline_Engine(t *testing.T) {
	p := NewPipeline(&mockSource{}, 0)
	assert.Equal(t, socialgraph.DefaultReplyWindow, p.Engine(0).ReplyWindow())
	assert.Equal(t, 5*time.Second, p.Engine(5*time.Second).ReplyWindow())
}
