// Package app wires configuration into the long-lived components shared by
// the server and the CLI.
package app

import (
	"context"
	"time"

	"friendmap/backend/internal/artifact"
	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/graph"
	"friendmap/backend/internal/services"
	"friendmap/backend/internal/store"
	"friendmap/backend/pkg/config"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired components. Close releases every backend that was
// opened.
type App struct {
	Pipeline  *services.Pipeline
	Snapshots *store.Store      // nil when SNAPSHOT_DB is unset
	Graphs    *graph.Repository // nil when NEO4J_URI is unset

	closers []func() error
	logger  *zap.Logger
}

// Option customizes New
type Option func(*options)

type options struct {
	source services.Source
}

// WithSource replaces the Discord scraper
func WithSource(src services.Source) Option {
	return func(o *options) {
		o.source = src
	}
}

// New builds the scrape/analyze pipeline and opens the optional snapshot and
// Neo4j backends
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = discord.NewScraper(discord.NewSession, cfg.ScrapeConcurrency, log)
	}

	a := &App{
		Pipeline: services.NewPipeline(o.source, cfg.ReplyWindow),
		logger:   log,
	}

	if cfg.SnapshotDB != "" {
		if err := a.openSnapshots(cfg.SnapshotDB); err != nil {
			return nil, err
		}
	}

	if cfg.Neo4jEnabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		driver, err := graph.Connect(connectCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Graphs = graph.NewRepository(driver)
		if err := a.Graphs.EnsureSchema(connectCtx); err != nil {
			log.Warn("Failed to apply Neo4j schema", zap.Error(err))
		}
		a.Pipeline.SetGraphSink(a.Graphs)
		a.closers = append(a.closers, a.Graphs.Close)
		log.Info("Neo4j graph persistence enabled", zap.String("uri", cfg.Neo4jURI))
	}

	return a, nil
}

// openSnapshots attaches a SQLite snapshot store at path
func (a *App) openSnapshots(path string) error {
	snapshots, err := store.Open(path, a.logger)
	if err != nil {
		a.Close()
		return err
	}
	a.Snapshots = snapshots
	a.Pipeline.SetSnapshotStore(snapshots)
	a.closers = append(a.closers, snapshots.Close)
	a.logger.Info("Snapshot store enabled", zap.String("path", path))
	return nil
}

// Close releases backends in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close backend", zap.Error(err))
		}
	}
	a.closers = nil
}

// NewArtifactStore opens the configured page backend. The returned func
// releases it.
func NewArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, func(), error) {
	switch cfg.ArtifactBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, apperrors.NewStorageFailed("connect redis", err)
		}
		return artifact.NewRedisStore(client, cfg.ArtifactTTL), func() { client.Close() }, nil
	default:
		fs, err := artifact.NewFileStore(cfg.GraphDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
