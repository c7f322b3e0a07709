package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"friendmap/backend/internal/api"
	"friendmap/backend/internal/app"
	"friendmap/backend/internal/artifact"
	"friendmap/backend/pkg/config"
	"friendmap/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Options{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	ctx := context.Background()

	// Initialize dependencies
	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize backends", zap.Error(err))
	}
	defer application.Close()

	artifacts, closeArtifacts, err := app.NewArtifactStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open artifact store", zap.Error(err))
	}
	defer closeArtifacts()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, application, artifacts, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("artifact_backend", cfg.ArtifactBackend),
		zap.Bool("snapshots", application.Snapshots != nil),
		zap.Bool("neo4j", application.Graphs != nil),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// scrapes can take up to SCRAPE_TIMEOUT, let them finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ScrapeTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func newRouter(cfg *config.Config, application *app.App, artifacts artifact.Store, log *zap.Logger) *gin.Engine {
	h := api.NewHandler(application.Pipeline, artifacts, api.Options{
		MessagesNumber: cfg.MessagesPerChannel,
		Timeout:        cfg.ScrapeTimeout,
		Layout:         cfg.Layout,
	}, log)
	if application.Snapshots != nil {
		h.SetSnapshotLister(application.Snapshots)
	}
	if application.Graphs != nil {
		h.SetGraphReader(application.Graphs)
	}
	return api.NewRouter(h)
}
