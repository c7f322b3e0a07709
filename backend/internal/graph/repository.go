package graph

import (
	"context"
	"fmt"
	"time"

	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"
	"friendmap/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Repository handles all Neo4j database operations
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Connect creates a driver and verifies the server is reachable
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// schema is applied by EnsureSchema. Every statement is idempotent.
var schema = []struct {
	name string
	stmt string
}{
	{"server_id_unique", "CREATE CONSTRAINT server_id_unique IF NOT EXISTS FOR (s:Server) REQUIRE s.id IS UNIQUE"},
	{"member_id_unique", "CREATE CONSTRAINT member_id_unique IF NOT EXISTS FOR (m:Member) REQUIRE m.id IS UNIQUE"},
	{"talks_to_server", "CREATE INDEX talks_to_server IF NOT EXISTS FOR ()-[t:TALKS_TO]-() ON (t.server_id)"},
}

// EnsureSchema creates the constraints and indexes the social graph relies on
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, step := range schema {
		result, err := session.Run(ctx, step.stmt, nil)
		if err == nil {
			_, err = result.Consume(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", step.name, apperrors.NewGraphQueryFailed(step.stmt, err))
		}
		r.logger.Debug("Schema step applied", zap.String("name", step.name))
	}
	return nil
}

const (
	clearMembersQuery = `
		MATCH (:Member)-[r:MEMBER_OF]->(:Server {id: $serverID})
		DELETE r
	`
	upsertMembersQuery = `
		MERGE (s:Server {id: $serverID})
		SET s.name = $serverName,
		    s.updated_at = datetime($now)
		WITH s
		UNWIND $nodes AS node
		MERGE (m:Member {id: node.id})
		SET m.name = node.name
		MERGE (m)-[r:MEMBER_OF]->(s)
		SET r.position = node.position
	`
	clearTalksToQuery = `
		MATCH (:Member)-[t:TALKS_TO {server_id: $serverID}]->(:Member)
		DELETE t
	`
	createTalksToQuery = `
		UNWIND $edges AS edge
		MATCH (a:Member {id: edge.source})
		MATCH (b:Member {id: edge.target})
		CREATE (a)-[:TALKS_TO {server_id: $serverID, weight: edge.weight, position: edge.position}]->(b)
	`
)

// SaveSocialGraph stores g as the current graph of its server. Memberships and
// edges from a previous save of the same server are replaced, so saving is
// idempotent and members missing from g drop out of the server.
func (r *Repository) SaveSocialGraph(ctx context.Context, g *socialgraph.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	nodes := make([]any, 0, g.NodeCount())
	for i, n := range g.Nodes() {
		nodes = append(nodes, map[string]any{"id": n.ID, "name": n.Name, "position": i})
	}
	edges := make([]any, 0, g.EdgeCount())
	for i, e := range g.Edges() {
		edges = append(edges, map[string]any{"source": e.Source, "target": e.Target, "weight": e.Weight, "position": i})
	}

	now := time.Now().UTC().Format(time.RFC3339)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			query  string
			params map[string]any
		}{
			{clearMembersQuery, map[string]any{"serverID": g.ID}},
			{clearTalksToQuery, map[string]any{"serverID": g.ID}},
			{upsertMembersQuery, map[string]any{"serverID": g.ID, "serverName": g.Name, "now": now, "nodes": nodes}},
			{createTalksToQuery, map[string]any{"serverID": g.ID, "edges": edges}},
		}
		for _, step := range steps {
			result, err := tx.Run(ctx, step.query, step.params)
			if err != nil {
				return nil, apperrors.NewGraphQueryFailed(step.query, err)
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, apperrors.NewGraphQueryFailed(step.query, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to save social graph: %w", err)
	}

	r.logger.Info("Social graph saved",
		zap.String("server_id", g.ID),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
	)
	return nil
}

// FetchSocialGraph rebuilds the stored graph of a server
func (r *Repository) FetchSocialGraph(ctx context.Context, serverID string) (*socialgraph.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (s:Server {id: $serverID})
		OPTIONAL MATCH (m:Member)-[r:MEMBER_OF]->(s)
		RETURN s.name AS server_name, m.id AS id, m.name AS name
		ORDER BY r.position
	`
	result, err := session.Run(ctx, query, map[string]any{"serverID": serverID})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	var g *socialgraph.Graph
	for result.Next(ctx) {
		record := result.Record()
		if g == nil {
			g = socialgraph.NewGraph(serverID, getStringFromRecord(record, "server_name"))
		}
		if id := getStringFromRecord(record, "id"); id != "" {
			g.AddNode(socialgraph.Author{ID: id, Name: getStringFromRecord(record, "name")})
		}
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}
	if g == nil {
		return nil, apperrors.NewServerNotFound(serverID)
	}

	query = `
		MATCH (a:Member)-[t:TALKS_TO {server_id: $serverID}]->(b:Member)
		RETURN a.id AS source, a.name AS source_name, b.id AS target, b.name AS target_name, t.weight AS weight
		ORDER BY t.position
	`
	result, err = session.Run(ctx, query, map[string]any{"serverID": serverID})
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}
	for result.Next(ctx) {
		record := result.Record()
		g.AddWeightedEdge(
			socialgraph.Author{ID: getStringFromRecord(record, "source"), Name: getStringFromRecord(record, "source_name")},
			socialgraph.Author{ID: getStringFromRecord(record, "target"), Name: getStringFromRecord(record, "target_name")},
			getIntFromRecord(record, "weight"),
		)
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed(query, err)
	}

	return g, nil
}
