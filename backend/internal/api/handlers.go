package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"friendmap/backend/internal/artifact"
	"friendmap/backend/internal/discord"
	"friendmap/backend/internal/render"
	"friendmap/backend/internal/socialgraph"
	apperrors "friendmap/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// scrapeParams is accepted as JSON or as a form. Durations are in seconds.
type scrapeParams struct {
	Token          string  `json:"token" form:"token" binding:"required"`
	ServerName     string  `json:"server_name" form:"server_name" binding:"required"`
	MessagesNumber int     `json:"messages_number" form:"messages_number" binding:"omitempty,min=1"`
	Timeout        float64 `json:"timeout" form:"timeout" binding:"omitempty,gt=0"`
	ReplyWindow    float64 `json:"reply_window" form:"reply_window" binding:"omitempty,gt=0"`
	Layout         string  `json:"layout" form:"layout"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (h *Handler) request(p scrapeParams) discord.ScrapeRequest {
	req := discord.ScrapeRequest{
		Token:          p.Token,
		ServerName:     p.ServerName,
		MessagesNumber: p.MessagesNumber,
		Timeout:        seconds(p.Timeout),
	}
	if req.MessagesNumber == 0 {
		req.MessagesNumber = h.opts.MessagesNumber
	}
	if req.Timeout == 0 {
		req.Timeout = h.opts.Timeout
	}
	return req
}

// scrape binds the request and runs the scrape, writing the error response
// itself when it returns nil
func (h *Handler) scrape(c *gin.Context) (*scrapeParams, *socialgraph.Community) {
	var params scrapeParams
	if err := c.ShouldBind(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil
	}
	if params.Layout != "" && !slices.Contains(render.Layouts(), params.Layout) {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.NewUnknownLayout(params.Layout).Error()})
		return nil, nil
	}

	community, err := h.pipeline.Scrape(c.Request.Context(), h.request(params))
	if err != nil {
		h.scrapeError(c, params.ServerName, err)
		return nil, nil
	}
	return &params, community
}

func (h *Handler) scrapeError(c *gin.Context, serverName string, err error) {
	var (
		notFound *apperrors.ErrDiscordGuildNotFound
		auth     *apperrors.ErrDiscordAuthFailed
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
	case errors.As(err, &auth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Discord rejected the token"})
	default:
		h.logger.Error("Failed to scrape server", zap.String("server_name", serverName), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch messages from Discord"})
	}
}

// postConnections returns every interaction occurrence as [source, target]
func (h *Handler) postConnections(c *gin.Context) {
	params, community := h.scrape(c)
	if community == nil {
		return
	}
	c.JSON(http.StatusOK, h.pipeline.Connections(community, seconds(params.ReplyWindow)))
}

// postGraph renders the community and answers with the page location
func (h *Handler) postGraph(c *gin.Context) {
	params, community := h.scrape(c)
	if community == nil {
		return
	}
	ctx := c.Request.Context()

	g := h.pipeline.Analyze(ctx, community, seconds(params.ReplyWindow))

	layout := params.Layout
	if layout == "" {
		layout = h.opts.Layout
	}
	page, err := render.HTML(g, layout)
	if err != nil {
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

// getGraph serves a rendered page
func (h *Handler) getGraph(c *gin.Context) {
	id := c.Param("id")

	page, err := h.artifacts.Get(c.Request.Context(), id)
	if err != nil {
		var notFound *apperrors.ErrArtifactNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Graph not found"})
			return
		}
		h.logger.Error("Failed to load graph", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load graph"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

type analyzeQuery struct {
	ReplyWindow float64 `form:"reply_window" binding:"omitempty,gt=0"`
}

type nodeResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Degree int    `json:"degree"`
}

type edgeResponse struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourceName string `json:"source_name"`
	TargetName string `json:"target_name"`
	Weight     int    `json:"weight"`
}

type analyzeResponse struct {
	Nodes []nodeResponse `json:"nodes"`
	Edges []edgeResponse `json:"edges"`
}

// postAnalyze aggregates an uploaded community without touching Discord
func (h *Handler) postAnalyze(c *gin.Context) {
	var query analyzeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var community socialgraph.Community
	if err := c.ShouldBindJSON(&community); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g := h.pipeline.Analyze(c.Request.Context(), &community, seconds(query.ReplyWindow))
	c.JSON(http.StatusOK, graphResponse(g))
}

func graphResponse(g *socialgraph.Graph) analyzeResponse {
	resp := analyzeResponse{
		Nodes: make([]nodeResponse, 0, g.NodeCount()),
		Edges: make([]edgeResponse, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, nodeResponse{ID: n.ID, Name: n.Name, Degree: g.Degree(n.ID)})
	}
	for _, t := range g.Triples() {
		resp.Edges = append(resp.Edges, edgeResponse{
			Source:     t.Source.ID,
			Target:     t.Target.ID,
			SourceName: t.Source.Name,
			TargetName: t.Target.Name,
			Weight:     t.Weight,
		})
	}
	return resp
}
