// Package embcache memoizes query text embeddings in the index engine's
// key space so repeated searches skip the model server.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain"
)

var _ domain.Embedder = (*CachedEmbedder)(nil)

// Lookup outcomes, used as the "result" metric label.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder wraps an Embedder. Text vectors are stored under
// "<prefix>emb_cache:<sha256(text)>" for ttl; images always go to inner.
// Cache failures degrade to a miss and never fail the call.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	keyBase string
	ttl     time.Duration
	counter *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a caching decorator. counter may be nil.
func New(
	inner domain.Embedder,
	s store,
	prefix string,
	ttl time.Duration,
	counter *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:   inner,
		store:   s,
		keyBase: prefix + "emb_cache:",
		ttl:     ttl,
		counter: counter,
		logger:  logger,
	}
}

// EmbedText implements domain.Embedder.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	vec, outcome := c.lookup(ctx, key)
	c.count(outcome)
	if outcome == resultHit {
		return vec, nil
	}

	vec, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if err := c.store.SetWithTTL(ctx, key, encode(vec), c.ttl); err != nil {
		c.logger.Warn("Query embedding not cached", zap.String("key", key), zap.Error(err))
	}
	return vec, nil
}

// EmbedImage implements domain.Embedder without caching.
func (c *CachedEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	vec, err := c.inner.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	return vec, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.keyBase + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, string) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, resultMiss
	case err != nil:
		c.logger.Warn("Query cache read failed", zap.String("key", key), zap.Error(err))
		return nil, resultError
	case len(data) == 0:
		return nil, resultMiss
	}

	vec, err := decode(data)
	if err != nil {
		c.logger.Warn("Query cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, resultError
	}
	return vec, resultHit
}

func (c *CachedEmbedder) count(outcome string) {
	if c.counter != nil {
		c.counter.WithLabelValues(outcome).Inc()
	}
}

// encode packs v as little-endian float32s.
func encode(v []float32) []byte {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector is %d bytes, not a multiple of 4", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}
