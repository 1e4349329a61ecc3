// Package ingest rebuilds the photo index from a CSV of photo metadata.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// Defaults.
const (
	DefaultBatchSize = 50
	DefaultWorkers   = 8
)

// ErrDependencyRequired is returned by NewPipeline when a collaborator is nil.
var ErrDependencyRequired = errors.New("ingest: dependency required")

// Pipeline reads photo records, prepares each photo on a bounded worker
// pool and commits the survivors in batches. Only the Run goroutine touches
// the pending batch.
type Pipeline struct {
	images   ImageSource
	faces    FaceChecker
	embedder Embedder
	index    IndexWriter

	pool      *ants.Pool
	workers   int
	batchSize int
	limit     int
	root      int
	normalize bool
	progress  Progress
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			n = 1
		}
		p.workers = n
		return nil
	}
}

// WithBatchSize sets how many documents go into one bulk commit.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		p.batchSize = n
		return nil
	}
}

// WithCap limits how many documents are committed; 0 means unlimited.
func WithCap(n int) Option {
	return func(p *Pipeline) error {
		if n < 0 {
			return fmt.Errorf("cap must not be negative, got %d", n)
		}
		p.limit = n
		return nil
	}
}

// WithRootTaxonID sets the taxonomy root stripped from taxon_ids.
func WithRootTaxonID(id int) Option {
	return func(p *Pipeline) error {
		p.root = id
		return nil
	}
}

// WithNormalize L2-normalizes image embeddings before commit.
func WithNormalize(on bool) Option {
	return func(p *Pipeline) error {
		p.normalize = on
		return nil
	}
}

// WithProgress reports terminal items to pr.
func WithProgress(pr Progress) Option {
	return func(p *Pipeline) error {
		if pr != nil {
			p.progress = pr
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPipeline creates an ingestion pipeline. Call Release when done.
func NewPipeline(
	images ImageSource,
	faces FaceChecker,
	embedder Embedder,
	index IndexWriter,
	opts ...Option,
) (*Pipeline, error) {
	if images == nil || faces == nil || embedder == nil || index == nil {
		return nil, ErrDependencyRequired
	}

	p := &Pipeline{
		images:    images,
		faces:     faces,
		embedder:  embedder,
		index:     index,
		workers:   DefaultWorkers,
		batchSize: DefaultBatchSize,
		root:      photo.DefaultRootTaxonID,
		progress:  nopProgress{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Release stops the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// itemResult travels from a worker back to the coordinator.
type itemResult struct {
	index  int
	group  photo.Group
	state  State
	reason string
	path   string
	doc    photo.Document
	err    error
}

// Run rebuilds the index from CSV. Per-item failures are counted and
// skipped; a failed index recreate, a malformed header or an unreachable
// engine at commit time abort the run.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (sum Summary, err error) {
	start := time.Now()
	defer func() { sum.Duration = time.Since(start) }()

	if err := p.index.Recreate(ctx); err != nil {
		return sum, fmt.Errorf("recreate index: %w", err)
	}

	groups, stats, err := ReadGroups(r, p.root, p.logger)
	if err != nil {
		return sum, fmt.Errorf("read csv: %w", err)
	}
	sum.Rows = stats.Rows
	sum.SkippedRows = stats.Skipped
	sum.Groups = len(groups)
	p.progress.ChangeMax(len(groups))

	p.logger.Info("Ingestion started",
		zap.Int("rows", stats.Rows),
		zap.Int("groups", len(groups)),
		zap.Int("batch_size", p.batchSize),
		zap.Int("workers", p.workers),
		zap.Int("cap", p.limit),
	)

	c := &coordinator{p: p, sum: &sum}
	for next := 0; next < len(groups); {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("ingestion cancelled: %w", err)
		}

		n := min(p.batchSize, len(groups)-next)
		if p.limit > 0 {
			room := p.limit - (sum.Committed + len(c.pending))
			if room <= 0 {
				sum.CapReached = true
				p.logger.Info("Ingestion cap reached", zap.Int("cap", p.limit))
				break
			}
			n = min(n, room)
		}

		chunk := groups[next : next+n]
		next += n

		for _, res := range p.processChunk(ctx, chunk) {
			c.accept(res)
		}
		if err := c.flushFull(ctx); err != nil {
			return sum, err
		}
	}

	if err := c.flush(ctx, len(c.pending)); err != nil {
		return sum, err
	}

	sum.Duration = time.Since(start)
	p.logger.Info("Ingestion finished", sum.Fields()...)
	return sum, nil
}

// processChunk fans the chunk out to the pool and waits for every result.
func (p *Pipeline) processChunk(ctx context.Context, chunk []photo.Group) []itemResult {
	out := make(chan itemResult, len(chunk))
	for i, g := range chunk {
		if err := p.pool.Submit(func() { out <- p.processItem(ctx, i, g) }); err != nil {
			out <- itemResult{index: i, group: g, state: StateErrored, err: fmt.Errorf("submit: %w", err)}
		}
	}

	results := make([]itemResult, len(chunk))
	for range chunk {
		res := <-out
		results[res.index] = res
	}
	return results
}

// processItem runs resolve, face check and embedding for one group.
func (p *Pipeline) processItem(ctx context.Context, index int, g photo.Group) (res itemResult) {
	res = itemResult{index: index, group: g, state: StatePending}
	defer func() {
		if r := recover(); r != nil {
			res.state = StateErrored
			res.err = fmt.Errorf("panic: %v", r)
		}
	}()

	path, ok := p.images.Ensure(ctx, g.PhotoID(), g.Extension())
	if !ok {
		return res.exclude(reasonImage, domain.ErrImageUnavailable)
	}
	res.path = path
	res.state = StateResolved

	if !p.faces.Passes(ctx, path) {
		return res.exclude(reasonFace, nil)
	}
	res.state = StateFaceChecked

	data, err := p.images.ReadImage(path)
	if err != nil {
		return res.exclude(reasonImage, err)
	}

	vec, err := p.embedder.Embed(ctx, domain.ImageInput(data), p.normalize)
	if err != nil {
		return res.exclude(reasonEmbedding, err)
	}

	res.doc = photo.NewDocument(g, vec)
	res.state = StateEmbedded
	return res
}

func (r itemResult) exclude(reason string, err error) itemResult {
	r.state = StateExcluded
	r.reason = reason
	r.err = err
	return r
}
