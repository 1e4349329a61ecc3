// Package embedding turns query and photo inputs into index-ready vectors.
package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

// probeText is embedded once at startup to learn the model's output dimension.
const probeText = "a photo of a bird"

// Gate wraps an Embedder with dimension checks, optional L2 normalization
// and optional call serialization.
type Gate struct {
	inner  domain.Embedder
	dims   int
	mu     *sync.Mutex // non-nil when serialized
	logger *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// Serialize makes the gate run at most one embedding call at a time.
// Use it for model clients that are not safe for concurrent use.
func Serialize() Option {
	return func(g *Gate) { g.mu = &sync.Mutex{} }
}

// NewGate creates an embedding gate that expects vectors of length dims.
func NewGate(inner domain.Embedder, dims int, logger *zap.Logger, opts ...Option) *Gate {
	g := &Gate{inner: inner, dims: dims, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimensions returns the configured vector length.
func (g *Gate) Dimensions() int { return g.dims }

// Embed vectorizes in. With normalize set the result has unit L2 norm
// (a zero vector stays zero).
func (g *Gate) Embed(ctx context.Context, in domain.Input, normalize bool) ([]float32, error) {
	if g.mu != nil {
		g.mu.Lock()
		defer g.mu.Unlock()
	}

	start := time.Now()
	vec, err := in.EmbedWith(ctx, g.inner)
	if err != nil {
		g.logger.Debug("Embedding request failed",
			zap.Stringer("input", in.Kind()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	if len(vec) != g.dims {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vec), g.dims)
	}

	if normalize {
		vec = Normalize(vec)
	}

	g.logger.Debug("Embedding request completed",
		zap.Stringer("input", in.Kind()),
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}

// CheckDimensions embeds a probe text and fails when the model's output
// length differs from the configured dimension.
func (g *Gate) CheckDimensions(ctx context.Context) error {
	if _, err := g.Embed(ctx, domain.TextInput(probeText), false); err != nil {
		return fmt.Errorf("embedding dimension check: %w", err)
	}
	return nil
}

// Normalize returns v scaled to unit L2 norm. A zero vector is returned as
// zeros rather than NaN.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
