package services

import (
	"context"
	"time"

	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/socialgraph"
	"friendmap/backend/pkg/logger"

	"go.uber.org/zap"
)

// Source produces a community snapshot, normally by scraping Discord
type Source interface {
	Scrape(ctx context.Context, req discord.ScrapeRequest) (*socialgraph.Community, error)
}

// SnapshotStore persists scraped communities
type SnapshotStore interface {
	SaveCommunity(ctx context.Context, c *socialgraph.Community) error
	LoadCommunity(ctx context.Context, serverID string) (*socialgraph.Community, error)
}

// GraphSink persists aggregated graphs
type GraphSink interface {
	SaveSocialGraph(ctx context.Context, g *socialgraph.Graph) error
}

// Pipeline wires a message source to the inference engine and the optional
// persistence backends. Persistence failures are logged, never returned:
// a map can always be produced from what was scraped.
type Pipeline struct {
	source    Source
	window    time.Duration
	snapshots SnapshotStore
	graphs    GraphSink
	logger    *zap.Logger
}

// NewPipeline creates a pipeline. A non-positive window selects
// socialgraph.DefaultReplyWindow.
func NewPipeline(source Source, window time.Duration) *Pipeline {
	if window <= 0 {
		window = socialgraph.DefaultReplyWindow
	}
	return &Pipeline{
		source: source,
		window: window,
		logger: logger.Get(),
	}
}

// SetSnapshotStore enables saving scraped communities
func (p *Pipeline) SetSnapshotStore(s SnapshotStore) {
	p.snapshots = s
}

// SetGraphSink enables saving aggregated graphs
func (p *Pipeline) SetGraphSink(g GraphSink) {
	p.graphs = g
}

// Engine returns an engine using window, or the pipeline default when window
// is not positive
func (p *Pipeline) Engine(window time.Duration) *socialgraph.Engine {
	if window <= 0 {
		window = p.window
	}
	return socialgraph.NewEngine(socialgraph.WithReplyWindow(window), socialgraph.WithLogger(p.logger))
}

// Scrape fetches a community and stores the snapshot when a store is set
func (p *Pipeline) Scrape(ctx context.Context, req discord.ScrapeRequest) (*socialgraph.Community, error) {
	c, err := p.source.Scrape(ctx, req)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Community scraped",
		zap.String("server_id", c.ID),
		zap.String("server_name", c.Name),
		zap.Int("channels", len(c.Channels)),
		zap.Int("messages", c.MessageCount()),
	)

	if p.snapshots != nil {
		if err := p.snapshots.SaveCommunity(ctx, c); err != nil {
			p.logger.Warn("Failed to save snapshot", zap.String("server_id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

// Load reads a stored snapshot
func (p *Pipeline) Load(ctx context.Context, serverID string) (*socialgraph.Community, error) {
	if p.snapshots == nil {
		return nil, ErrNoSnapshotStore
	}
	return p.snapshots.LoadCommunity(ctx, serverID)
}

// Connections lists every interaction occurrence as [source, target] names
func (p *Pipeline) Connections(c *socialgraph.Community, window time.Duration) [][2]string {
	pairs := [][2]string{}
	for conn := range p.Engine(window).Connections(*c) {
		pairs = append(pairs, [2]string{conn.Source.Name, conn.Target.Name})
	}
	return pairs
}

// Analyze aggregates c and stores the graph when a sink is set
func (p *Pipeline) Analyze(ctx context.Context, c *socialgraph.Community, window time.Duration) *socialgraph.Graph {
	g := p.Engine(window).Aggregate(*c)
	if p.graphs != nil {
		if err := p.graphs.SaveSocialGraph(ctx, g); err != nil {
			p.logger.Warn("Failed to save social graph", zap.String("server_id", g.ID), zap.Error(err))
		}
	}
	return g
}
