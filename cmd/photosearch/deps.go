package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/config"
	dbRedis "github.com/kailas-cloud/photosearch/internal/db/redis"
	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/metrics"
	"github.com/kailas-cloud/photosearch/internal/repository/embcache"
	"github.com/kailas-cloud/photosearch/internal/repository/photoindex"
	"github.com/kailas-cloud/photosearch/internal/transport/clip"
	openaiEmb "github.com/kailas-cloud/photosearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/photosearch/internal/usecase/embedding"
)

// connectStore opens the index engine and waits until it answers PING.
func connectStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:          cfg.Database.Addrs,
		Password:       cfg.Database.Password,
		RequestTimeout: time.Duration(cfg.Database.RequestTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
	return store, nil
}

// embedderStack is the provider chain plus the pieces health checks need.
type embedderStack struct {
	gate     *embeddinguc.Gate
	health   domain.HealthChecker
	detector domain.FaceDetector
}

// buildEmbedder assembles provider -> query cache -> dimension gate and
// verifies the model's output width against the index.
func buildEmbedder(
	ctx context.Context,
	cfg config.Config,
	store *dbRedis.Store,
	logger *zap.Logger,
) (*embedderStack, error) {
	timeout := time.Duration(cfg.Embedding.TimeoutSec) * time.Second

	var (
		base   domain.Embedder
		health domain.HealthChecker
	)
	switch cfg.Embedding.Provider {
	case "openai":
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Index.Dimensions,
			Timeout:    timeout,
			Logger:     logger,
		})
		base, health = e, e
	default:
		c := clip.NewClient(cfg.Embedding.BaseURL, timeout)
		base, health = c, c
	}

	embedder := base
	if cfg.Embedding.QueryCacheTTLSec > 0 {
		embedder = embcache.New(base, store, cfg.Index.KeyPrefix,
			time.Duration(cfg.Embedding.QueryCacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger)
	}

	var opts []embeddinguc.Option
	if cfg.Embedding.Serialize {
		opts = append(opts, embeddinguc.Serialize())
	}
	gate := embeddinguc.NewGate(embedder, cfg.Index.Dimensions, logger, opts...)
	if err := gate.CheckDimensions(ctx); err != nil {
		return nil, fmt.Errorf("embedding model check: %w", err)
	}

	stack := &embedderStack{gate: gate, health: health}
	if cfg.Faces.Enabled {
		stack.detector = clip.NewClient(cfg.Faces.BaseURL, timeout)
	}

	logger.Info("Embedder ready",
		zap.String("provider", cfg.Embedding.Provider),
		zap.Int("dimensions", cfg.Index.Dimensions),
		zap.Bool("query_cache", cfg.Embedding.QueryCacheTTLSec > 0),
		zap.Bool("faces", cfg.Faces.Enabled),
	)
	return stack, nil
}

func newPhotoIndex(cfg config.Config, store *dbRedis.Store) *photoindex.Repo {
	return photoindex.New(store, photoindex.Config{
		Name:        cfg.Index.Name,
		KeyPrefix:   cfg.Index.KeyPrefix,
		Dimensions:  cfg.Index.Dimensions,
		HNSWM:       cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
}
