// Package api exposes the mapping pipeline over HTTP.
package api

import (
	"net/http"
	"time"

	"friendmap/backend/internal/artifact"
	"friendmap/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options are the request defaults applied when a client omits them
type Options struct {
	MessagesNumber int
	Timeout        time.Duration
	Layout         string
}

// Handler serves the API routes
type Handler struct {
	pipeline  *services.Pipeline
	artifacts artifact.Store
	opts      Options
	snapshots SnapshotLister
	graphs    GraphReader
	logger    *zap.Logger
}

// NewHandler creates a handler
func NewHandler(pipeline *services.Pipeline, artifacts artifact.Store, opts Options, log *zap.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		artifacts: artifacts,
		opts:      opts,
		logger:    log,
	}
}

// NewRouter builds the gin engine with logging, recovery and CORS
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(h.logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With"},
		MaxAge:          12 * time.Hour,
	}))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/graph/:id", h.getGraph)

	api := router.Group("/api")
	{
		api.POST("/connections", h.postConnections)
		api.POST("/graph", h.postGraph)
		api.POST("/analyze", h.postAnalyze)
		api.GET("/snapshots", h.listSnapshots)
		api.POST("/snapshots/:id/graph", h.postSnapshotGraph)
		api.GET("/servers/:id/graph", h.getServerGraph)
	}

	return router
}
