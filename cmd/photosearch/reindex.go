package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/metrics"
	"github.com/kailas-cloud/photosearch/internal/repository/imagecache"
	faceuc "github.com/kailas-cloud/photosearch/internal/usecase/face"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex <csv>",
	Short: "Rebuild the photo index from a CSV export",
	Long: `Drop and recreate the photo index, then ingest every photo listed in the CSV.

Each row needs photo_id, extension, taxon_id and ancestry. Rows sharing a photo
are merged. Missing images are downloaded into the local cache, photos showing
faces are excluded when faces.enabled is set, and embeddings are committed in
batches.

Examples:
  # Full rebuild
  photosearch reindex data/observations.csv

  # First 1000 photos, 16 workers
  photosearch reindex data/observations.csv --cap 1000 --workers 16`,
	Args: cobra.ExactArgs(1),
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().Int("cap", -1, "Maximum photos to commit, 0 = unlimited (default: ingestion.cap)")
	reindexCmd.Flags().Int("batch-size", 0, "Documents per bulk commit (default: ingestion.batch_size)")
	reindexCmd.Flags().Int("workers", 0, "Parallel workers (default: ingestion.workers)")
	reindexCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	reindexCmd.Flags().String("metrics-addr", "", "Serve /metrics on this address while running, e.g. :9090")
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if v := mustGetInt(cmd, "cap"); v >= 0 {
		cfg.Ingestion.Cap = v
	}
	if v := mustGetInt(cmd, "batch-size"); v > 0 {
		cfg.Ingestion.BatchSize = v
	}
	if v := mustGetInt(cmd, "workers"); v > 0 {
		cfg.Ingestion.Workers = v
	}

	metrics.Register()
	if addr := mustGetString(cmd, "metrics-addr"); addr != "" {
		msrv := metrics.Serve(addr, logger)
		defer func() { _ = msrv.Close() }()
	}

	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	emb, err := buildEmbedder(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	images := imagecache.New(imagecache.Config{
		Dir:         cfg.Images.CacheDir,
		URLTemplate: cfg.Images.URLTemplate,
		Timeout:     time.Duration(cfg.Images.DownloadTimeoutSec) * time.Second,
	}, logger)

	// emb.detector is a nil interface when faces are disabled.
	faces := faceuc.NewGate(emb.detector, images, cfg.Faces.Threshold, cfg.Faces.MaxSide, logger)

	opts := []ingest.Option{
		ingest.WithWorkers(cfg.Ingestion.Workers),
		ingest.WithBatchSize(cfg.Ingestion.BatchSize),
		ingest.WithCap(cfg.Ingestion.Cap),
		ingest.WithRootTaxonID(cfg.Ingestion.RootTaxonID),
		ingest.WithNormalize(cfg.Embedding.Normalize),
		ingest.WithLogger(logger),
	}

	var bar *progressbar.ProgressBar
	if !mustGetBool(cmd, "no-progress") {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Indexing photos"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("photos"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
		opts = append(opts, ingest.WithProgress(bar))
	}

	pipeline, err := ingest.NewPipeline(images, faces, emb.gate, newPhotoIndex(cfg, store), opts...)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer pipeline.Release()

	logger.Info("Reindex started",
		zap.String("csv", args[0]),
		zap.String("index", cfg.Index.Name),
		zap.Int("cap", cfg.Ingestion.Cap),
		zap.Int("batch_size", cfg.Ingestion.BatchSize),
		zap.Int("workers", cfg.Ingestion.Workers),
	)

	sum, err := pipeline.Run(ctx, f)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		logger.Error("Reindex failed", append(sum.Fields(), zap.Error(err))...)
		return fmt.Errorf("reindex: %w", err)
	}

	logger.Info("Reindex finished", sum.Fields()...)
	fmt.Fprintf(cmd.OutOrStdout(),
		"committed %d of %d photos (excluded %d, errored %d, commit failures %d) in %s\n",
		sum.Committed, sum.Groups, sum.Excluded, sum.Errored, sum.CommitFailed, sum.Duration.Round(time.Millisecond))
	if sum.CapReached {
		fmt.Fprintf(cmd.OutOrStdout(), "cap of %d reached\n", cfg.Ingestion.Cap)
	}
	return nil
}
