package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// coordinator owns the pending batch and the run counters.
type coordinator struct {
	p       *Pipeline
	sum     *Summary
	pending []photo.Document
}

func (c *coordinator) accept(res itemResult) {
	log := c.p.logger.With(zap.String("photo_id", res.group.PhotoID()))

	switch res.state {
	case StateEmbedded:
		c.pending = append(c.pending, res.doc)
		return
	case StateExcluded:
		c.sum.Excluded++
		metrics.IngestItemsTotal.WithLabelValues(StateExcluded.String()).Inc()
		metrics.IngestExclusionsTotal.WithLabelValues(res.reason).Inc()
		fields := []zap.Field{zap.String("reason", res.reason)}
		if res.path != "" {
			fields = append(fields, zap.String("path", res.path))
		}
		if res.err != nil {
			fields = append(fields, zap.Error(res.err))
		}
		log.Info("Photo excluded", fields...)
	default:
		c.sum.Errored++
		metrics.IngestItemsTotal.WithLabelValues(StateErrored.String()).Inc()
		log.Warn("Photo errored", zap.Stringer("state", res.state), zap.Error(res.err))
	}
	_ = c.p.progress.Add(1)
}

// flushFull commits every complete batch in pending.
func (c *coordinator) flushFull(ctx context.Context) error {
	for len(c.pending) >= c.p.batchSize {
		if err := c.flush(ctx, c.p.batchSize); err != nil {
			return err
		}
	}
	return nil
}

// flush commits the first n pending documents. An empty flush is a no-op.
func (c *coordinator) flush(ctx context.Context, n int) error {
	if n == 0 {
		return nil
	}
	docs := c.pending[:n]

	start := time.Now()
	report, err := c.p.index.BulkCommit(ctx, docs)
	metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
	metrics.IngestBatchesTotal.Inc()
	if err != nil {
		return fmt.Errorf("bulk commit: %w", err)
	}

	ok := report.Succeeded()
	failed := report.Failed()
	c.sum.Committed += ok
	c.sum.CommitFailed += len(failed)
	metrics.IngestItemsTotal.WithLabelValues(StateCommitted.String()).Add(float64(ok))
	metrics.IngestItemsTotal.WithLabelValues("commit_failed").Add(float64(len(failed)))
	for _, f := range failed {
		c.p.logger.Warn("Document commit failed", zap.String("photo_id", f.ID()), zap.Error(f.Err()))
	}

	c.p.logger.Debug("Batch committed",
		zap.Int("docs", len(docs)),
		zap.Int("failed", len(failed)),
		zap.Duration("duration", time.Since(start)),
	)

	c.pending = c.pending[n:]
	_ = c.p.progress.Add(len(docs))
	return nil
}
