package photoindex

import (
	"context"
	"testing"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	calls []string

	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) ([]error, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string, deleteDocs bool) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) ([]error, error) {
	m.calls = append(m.calls, "HSetMulti")
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return make([]error, len(items)), nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	m.calls = append(m.calls, "CreateIndex")
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	m.calls = append(m.calls, "DropIndex")
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name, deleteDocs)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.calls = append(m.calls, "SearchKNN")
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

var testConfig = Config{
	Name:        "photos",
	KeyPrefix:   "photosearch:",
	Dimensions:  4,
	HNSWM:       16,
	EFConstruct: 200,
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testConfig), ms
}

func testDocument(t *testing.T, photoID string, meta photo.Metadata) photo.Document {
	t.Helper()
	rec, err := photo.NewRecord(photoID, "jpg", 5, "48460/1/2", meta)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	groups := photo.GroupRecords([]photo.Record{rec}, photo.DefaultRootTaxonID)
	return photo.NewDocument(groups[0], []float32{1, 0, 0, 0})
}
