package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"friendmap/backend/internal/artifact"
	"friendmap/backend/internal/services"
	"friendmap/backend/internal/socialgraph"
	"friendmap/backend/internal/store"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGraphReader struct {
	graphs map[string]*socialgraph.Graph
}

func (f *fakeGraphReader) FetchSocialGraph(ctx context.Context, serverID string) (*socialgraph.Graph, error) {
	g, ok := f.graphs[serverID]
	if !ok {
		return nil, apperrors.NewServerNotFound(serverID)
	}
	return g, nil
}

func setupStoredRouter(t *testing.T) (*gin.Engine, *Handler, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snapshots, err := store.Open(filepath.Join(t.TempDir(), "friendmap.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { snapshots.Close() })

	artifacts, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)

	pipeline := services.NewPipeline(&fakeSource{}, 0)
	pipeline.SetSnapshotStore(snapshots)
	h := NewHandler(pipeline, artifacts, Options{Layout: "reingold"}, zap.NewNop())
	h.SetSnapshotLister(snapshots)
	return NewRouter(h), h, snapshots
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestSnapshotsEndpoint(t *testing.T) {
	router, _, snapshots := setupStoredRouter(t)

	w := get(router, "/api/snapshots")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, snapshots.SaveCommunity(context.Background(), testCommunity()))

	w = get(router, "/api/snapshots")
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []store.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "42", summaries[0].ID)
	assert.Equal(t, "guild", summaries[0].Name)
}

func TestSnapshotGraphEndpoint(t *testing.T) {
	router, _, snapshots := setupStoredRouter(t)
	require.NoError(t, snapshots.SaveCommunity(context.Background(), testCommunity()))

	w := postJSON(router, "/api/snapshots/42/graph", gin.H{"layout": "circular"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = get(router, created["graphURL"])
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guild Network graph")

	w = postJSON(router, "/api/snapshots/missing/graph", gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postJSON(router, "/api/snapshots/42/graph", gin.H{"layout": "spiral"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoredEndpoints_NotConfigured(t *testing.T) {
	router := setupRouter(t, &fakeSource{})

	assert.Equal(t, http.StatusNotImplemented, get(router, "/api/snapshots").Code)
	assert.Equal(t, http.StatusNotImplemented, postJSON(router, "/api/snapshots/42/graph", gin.H{}).Code)
	assert.Equal(t, http.StatusNotImplemented, get(router, "/api/servers/42/graph").Code)
}

func TestServerGraphEndpoint(t *testing.T) {
	router, h, _ := setupStoredRouter(t)

	g := socialgraph.NewEngine(socialgraph.WithLogger(zap.NewNop())).Aggregate(*testCommunity())
	h.SetGraphReader(&fakeGraphReader{graphs: map[string]*socialgraph.Graph{"42": g}})

	w := get(router, "/api/servers/42/graph")
	require.Equal(t, http.StatusOK, w.Code)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Nodes, 2)
	assert.Len(t, resp.Edges, 2)

	assert.Equal(t, http.StatusNotFound, get(router, "/api/servers/7/graph").Code)
}
