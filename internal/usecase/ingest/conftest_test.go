package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/batch"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// fakeImages treats the photo id as the local path.
type fakeImages struct {
	missing map[string]bool
	panics  map[string]bool
}

func (f *fakeImages) Ensure(_ context.Context, photoID, _ string) (string, bool) {
	if f.panics[photoID] {
		panic("boom")
	}
	return photoID, !f.missing[photoID]
}

func (f *fakeImages) ReadImage(path string) ([]byte, error) {
	return []byte(path), nil
}

type fakeFaces struct {
	faces map[string]bool
}

func (f *fakeFaces) Passes(_ context.Context, path string) bool { return !f.faces[path] }

type fakeEmbedder struct {
	fail map[string]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, in domain.Input, _ bool) ([]float32, error) {
	if f.fail[string(in.Image())] {
		return nil, domain.ErrEmbeddingProviderError
	}
	return []float32{1, 0}, nil
}

type fakeIndex struct {
	mu          sync.Mutex
	calls       []string
	batches     [][]photo.Document
	recreateErr error
	commitErr   error
	failIDs     map[string]bool
}

func (f *fakeIndex) Recreate(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "Recreate")
	return f.recreateErr
}

func (f *fakeIndex) BulkCommit(_ context.Context, docs []photo.Document) (batch.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "BulkCommit")
	if f.commitErr != nil {
		return batch.Report{}, f.commitErr
	}
	f.batches = append(f.batches, append([]photo.Document(nil), docs...))
	results := make([]batch.Result, len(docs))
	for i, d := range docs {
		if f.failIDs[d.PhotoID()] {
			results[i] = batch.NewFailed(d.PhotoID(), errors.New("OOM"))
			continue
		}
		results[i] = batch.NewCommitted(d.PhotoID())
	}
	return batch.NewReport(results), nil
}

func (f *fakeIndex) committedIDs() []string {
	var ids []string
	for _, b := range f.batches {
		for _, d := range b {
			if !f.failIDs[d.PhotoID()] {
				ids = append(ids, d.PhotoID())
			}
		}
	}
	return ids
}

type countingProgress struct {
	max int
	n   int
}

func (p *countingProgress) ChangeMax(m int) { p.max = m }
func (p *countingProgress) Add(n int) error {
	p.n += n
	return nil
}

type fixture struct {
	images *fakeImages
	faces  *fakeFaces
	embed  *fakeEmbedder
	index  *fakeIndex
}

func newFixture() *fixture {
	return &fixture{
		images: &fakeImages{missing: map[string]bool{}, panics: map[string]bool{}},
		faces:  &fakeFaces{faces: map[string]bool{}},
		embed:  &fakeEmbedder{fail: map[string]bool{}},
		index:  &fakeIndex{failIDs: map[string]bool{}},
	}
}

func (f *fixture) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	p, err := NewPipeline(f.images, f.faces, f.embed, f.index, opts...)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	t.Cleanup(p.Release)
	return p
}

// csvRows builds a CSV with n distinct photos, ids 1..n.
func csvRows(n int) string {
	var b strings.Builder
	b.WriteString("photo_id,extension,taxon_id,ancestry\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d,jpg,5,48460/1/2/5\n", i)
	}
	return b.String()
}
