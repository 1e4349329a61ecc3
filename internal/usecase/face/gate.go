// Package face excludes photos that show people.
package face

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// ImageLoader reads a local image prepared for detection.
type ImageLoader interface {
	ReadScaled(path string, maxSide int) ([]byte, error)
}

// Gate decides whether a photo may be indexed.
type Gate struct {
	detector  domain.FaceDetector
	images    ImageLoader
	threshold float64
	maxSide   int
	logger    *zap.Logger
}

// NewGate creates a face exclusion gate. A nil detector disables the check.
func NewGate(detector domain.FaceDetector, images ImageLoader, threshold float64, maxSide int, logger *zap.Logger) *Gate {
	return &Gate{
		detector:  detector,
		images:    images,
		threshold: threshold,
		maxSide:   maxSide,
		logger:    logger,
	}
}

// Passes reports whether the image at path contains no face detected with
// a score above the threshold. Read, decode and detector failures
// exclude the photo.
func (g *Gate) Passes(ctx context.Context, path string) bool {
	if g.detector == nil {
		return true
	}

	data, err := g.images.ReadScaled(path, g.maxSide)
	if err != nil {
		metrics.FaceChecksTotal.WithLabelValues("error").Inc()
		g.logger.Warn("Face check: unreadable image", zap.String("path", path), zap.Error(err))
		return false
	}

	faces, err := g.detector.DetectFaces(ctx, data)
	if err != nil {
		metrics.FaceChecksTotal.WithLabelValues("error").Inc()
		g.logger.Warn("Face check: detector failed", zap.String("path", path), zap.Error(err))
		return false
	}

	for _, f := range faces {
		if f.Score > g.threshold {
			metrics.FaceChecksTotal.WithLabelValues("face").Inc()
			g.logger.Debug("Face detected",
				zap.String("path", path),
				zap.Float64("score", f.Score),
			)
			return false
		}
	}

	metrics.FaceChecksTotal.WithLabelValues("pass").Inc()
	return true
}
