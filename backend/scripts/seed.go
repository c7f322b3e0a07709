package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"friendmap/backend/internal/app"
	"friendmap/backend/internal/socialgraph"
	"friendmap/backend/pkg/config"
	"friendmap/backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds the snapshot database (and Neo4j when configured) with a synthetic
// community so the server and the render command have something to show.
//
//	go run ./backend/scripts -db friendmap.db -members 12 -messages 200
func main() {
	dbPath := flag.String("db", "", "SQLite snapshot database (defaults to SNAPSHOT_DB)")
	serverName := flag.String("server-name", "Seeded Server", "Name of the generated server")
	members := flag.Int("members", 8, "Number of members")
	channels := flag.Int("channels", 3, "Number of channels")
	messages := flag.Int("messages", 120, "Messages per channel")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	if *members < 1 || *channels < 1 || *messages < 1 {
		panic("-members, -channels and -messages must be positive")
	}

	// Initialize logger
	if err := logger.Init(logger.Options{Env: "development"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *dbPath != "" {
		cfg.SnapshotDB = *dbPath
	}
	if cfg.SnapshotDB == "" {
		log.Fatal("A snapshot database is required: pass -db or set SNAPSHOT_DB")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize backends", zap.Error(err))
	}
	defer a.Close()

	community := generate(*serverName, *members, *channels, *messages, *seed)
	if err := a.Snapshots.SaveCommunity(ctx, community); err != nil {
		log.Fatal("Failed to save community", zap.Error(err))
	}

	g := a.Pipeline.Analyze(ctx, community, 0)

	log.Info("Seeding completed successfully!",
		zap.String("server_id", community.ID),
		zap.Int("messages", community.MessageCount()),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Bool("neo4j", a.Graphs != nil),
	)
	fmt.Printf("Render it with: friendmap render --db %s --server-id %s -o seeded.html\n", cfg.SnapshotDB, community.ID)
}

// generate builds a community where a few members do most of the talking.
// Gaps are drawn around the reply window so both replies and silences occur.
func generate(serverName string, members, channels, perChannel int, seed uint64) *socialgraph.Community {
	rng := rand.New(rand.NewPCG(seed, seed))

	authors := make([]socialgraph.Author, members)
	for i := range authors {
		authors[i] = socialgraph.Author{ID: uuid.NewString(), Name: fmt.Sprintf("member-%02d", i+1)}
	}
	pick := func() socialgraph.Author {
		// squared draw favours low indices
		f := rng.Float64()
		return authors[int(f*f*float64(len(authors)))]
	}

	c := &socialgraph.Community{
		ID:       uuid.NewString(),
		Name:     serverName,
		Channels: make([]socialgraph.Channel, channels),
	}
	start := time.Now().UTC().Add(-24 * time.Hour)
	for i := range c.Channels {
		ch := socialgraph.Channel{ID: uuid.NewString(), Name: fmt.Sprintf("channel-%d", i+1)}
		at := start
		for range perChannel {
			at = at.Add(time.Duration(rng.IntN(40)+1) * time.Second)
			m := socialgraph.Message{
				Author:    pick(),
				Server:    serverName,
				Channel:   ch.Name,
				Timestamp: at.Format(time.RFC3339Nano),
				Content:   "seeded message",
			}
			if rng.IntN(10) == 0 {
				m.Mentions = []socialgraph.Author{pick()}
			}
			ch.Messages = append(ch.Messages, m)
		}
		c.Channels[i] = ch
	}
	return c
}
