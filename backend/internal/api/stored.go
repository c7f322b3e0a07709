package api

import (
	"context"
	"errors"
	"net/http"

	"friendmap/backend/internal/artifact"
	"friendmap/backend/internal/render"
	"friendmap/backend/internal/services"
	"friendmap/backend/internal/socialgraph"
	"friendmap/backend/internal/store"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SnapshotLister lists stored communities
type SnapshotLister interface {
	ListCommunities(ctx context.Context) ([]store.Summary, error)
}

// GraphReader reads graphs persisted to the graph database
type GraphReader interface {
	FetchSocialGraph(ctx context.Context, serverID string) (*socialgraph.Graph, error)
}

// SetSnapshotLister enables GET /api/snapshots
func (h *Handler) SetSnapshotLister(l SnapshotLister) {
	h.snapshots = l
}

// SetGraphReader enables GET /api/servers/:id/graph
func (h *Handler) SetGraphReader(r GraphReader) {
	h.graphs = r
}

func (h *Handler) listSnapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot store not configured"})
		return
	}
	summaries, err := h.snapshots.ListCommunities(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list snapshots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list snapshots"})
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	c.JSON(http.StatusOK, summaries)
}

type snapshotGraphParams struct {
	ReplyWindow float64 `json:"reply_window" form:"reply_window" binding:"omitempty,gt=0"`
	Layout      string  `json:"layout" form:"layout"`
}

// postSnapshotGraph renders a stored snapshot
func (h *Handler) postSnapshotGraph(c *gin.Context) {
	var params snapshotGraphParams
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	layout := params.Layout
	if layout == "" {
		layout = h.opts.Layout
	}
	ctx := c.Request.Context()

	community, err := h.pipeline.Load(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNoSnapshotStore) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "Snapshot store not configured"})
			return
		}
		var notFound *apperrors.ErrSnapshotNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot not found"})
			return
		}
		h.logger.Error("Failed to load snapshot", zap.String("server_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load snapshot"})
		return
	}

	g := h.pipeline.Analyze(ctx, community, seconds(params.ReplyWindow))
	page, err := render.HTML(g, layout)
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeExport) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to render graph", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render graph"})
		return
	}

	id := artifact.NewID()
	if err := h.artifacts.Put(ctx, id, page); err != nil {
		h.logger.Error("Failed to store graph", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store graph"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"graphURL": "/graph/" + id})
}

// getServerGraph returns the graph last saved to the graph database
func (h *Handler) getServerGraph(c *gin.Context) {
	if h.graphs == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Graph database not configured"})
		return
	}
	g, err := h.graphs.FetchSocialGraph(c.Request.Context(), c.Param("id"))
	if err != nil {
		var notFound *apperrors.ErrServerNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
			return
		}
		h.logger.Error("Failed to fetch graph", zap.String("server_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch graph"})
		return
	}
	c.JSON(http.StatusOK, graphResponse(g))
}
