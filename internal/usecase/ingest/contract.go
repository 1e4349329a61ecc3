package ingest

import (
	"context"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/batch"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// ImageSource locates or downloads photo files.
type ImageSource interface {
	Ensure(ctx context.Context, photoID, ext string) (string, bool)
	ReadImage(path string) ([]byte, error)
}

// FaceChecker decides whether an image may be indexed.
type FaceChecker interface {
	Passes(ctx context.Context, path string) bool
}

// Embedder vectorizes photo images.
type Embedder interface {
	Embed(ctx context.Context, in domain.Input, normalize bool) ([]float32, error)
}

// IndexWriter owns the target index.
type IndexWriter interface {
	Recreate(ctx context.Context) error
	BulkCommit(ctx context.Context, docs []photo.Document) (batch.Report, error)
}

// Progress receives one tick per item reaching a terminal state.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(n int) error
}

type nopProgress struct{}

func (nopProgress) ChangeMax(int) {}
func (nopProgress) Add(int) error { return nil }
