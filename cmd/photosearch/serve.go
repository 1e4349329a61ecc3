package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain/search/request"
	"github.com/kailas-cloud/photosearch/internal/metrics"
	chiTransport "github.com/kailas-cloud/photosearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/photosearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/photosearch/internal/usecase/search"
	"github.com/kailas-cloud/photosearch/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API",
	Long: `Serve text and image queries over HTTP.

Endpoints:
  POST /, GET|POST /search   search (form or multipart)
  GET /status                liveness
  GET /health                component health
  GET /metrics               Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides http.port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.HTTP.Port = port
	}

	logger.Info("Starting photosearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index", cfg.Index.Name),
	)

	metrics.Register()

	ctx := context.Background()
	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	emb, err := buildEmbedder(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	composer := searchuc.NewComposer(emb.gate, searchuc.ComposerConfig{
		K:                cfg.Search.K,
		NumCandidates:    cfg.Search.NumCandidates,
		ExcludedTaxonIDs: cfg.Search.ExcludedTaxonIDs,
		MetadataFilters:  cfg.Search.MetadataFilters,
		NormalizeQuery:   cfg.Search.NormalizeQuery || cfg.Embedding.Normalize,
	})
	searchSvc := searchuc.New(composer, newPhotoIndex(cfg, store))

	// Pass a nil interface (not a typed nil pointer) when faces are off.
	var facesHealth healthuc.Checker
	if hc, ok := emb.detector.(healthuc.Checker); ok {
		facesHealth = hc
	}
	healthSvc := healthuc.New(store, emb.health, facesHealth)

	server := chiTransport.NewServer(searchSvc, healthSvc, chiTransport.Options{
		Limits: request.Limits{
			DefaultPerPage: cfg.Search.DefaultPageSize,
			MaxPerPage:     cfg.Search.MaxPageSize,
		},
		MetadataFilters: cfg.Search.MetadataFilters,
		MaxUploadBytes:  cfg.HTTP.MaxUploadBytes,
		APIKeys:         cfg.Auth.APIKeys,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
