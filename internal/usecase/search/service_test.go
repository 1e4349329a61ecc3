package search

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/filter"
	"github.com/kailas-cloud/photosearch/internal/domain/search/request"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
)

type mockEmbedder struct {
	vec       []float32
	err       error
	normalize bool
	in        domain.Input
}

func (m *mockEmbedder) Embed(_ context.Context, in domain.Input, normalize bool) ([]float32, error) {
	m.in = in
	m.normalize = normalize
	return m.vec, m.err
}

// mockRepo serves a fixed ranking and applies Offset/Limit like the engine.
type mockRepo struct {
	ranked []string
	err    error
	q      *db.KNNQuery
}

func (m *mockRepo) Search(_ context.Context, q *db.KNNQuery) (result.Page, error) {
	m.q = q
	if m.err != nil {
		return result.Page{}, m.err
	}
	var hits []result.Hit
	for i := q.Offset; i < len(m.ranked) && i < q.Offset+q.Limit; i++ {
		hits = append(hits, result.NewHit(m.ranked[i], 1-float64(i)/10))
	}
	return result.NewPage(hits, len(m.ranked), 0, 0), nil
}

var limits = request.Limits{DefaultPerPage: 20, MaxPerPage: 100}

func newRequest(t *testing.T, taxonID *int, page, perPage int, meta map[string]string) *request.Request {
	t.Helper()
	req, err := request.New(domain.TextInput("heron"), taxonID, page, perPage, false, meta, limits)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func findCondition(conds []filter.Condition, key string) (filter.Condition, bool) {
	for _, c := range conds {
		if c.Key() == key {
			return c, true
		}
	}
	return filter.Condition{}, false
}

func TestBuild_Pagination(t *testing.T) {
	c := NewComposer(&mockEmbedder{vec: []float32{1}}, ComposerConfig{K: 100, NumCandidates: 200})

	q, err := c.Build(context.Background(), newRequest(t, nil, 1, 2, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Offset != 2 || q.Limit != 2 {
		t.Errorf("Offset/Limit = %d/%d, want 2/2", q.Offset, q.Limit)
	}
	if q.K != 100 || q.NumCandidates != 200 || q.VectorField != FieldEmbedding {
		t.Errorf("query = %+v", q)
	}
	if !q.Filters.IsEmpty() {
		t.Errorf("expected no filters, got must=%v mustNot=%v", q.Filters.Must(), q.Filters.MustNot())
	}
}

func TestBuild_Exclusions(t *testing.T) {
	c := NewComposer(&mockEmbedder{vec: []float32{1}}, ComposerConfig{K: 10, ExcludedTaxonIDs: []int{47144, 43584, 47144}})

	q, err := c.Build(context.Background(), newRequest(t, nil, 0, 0, nil))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cond, ok := findCondition(q.Filters.MustNot(), FieldTaxonIDs)
	if !ok {
		t.Fatal("expected must-not taxon_ids condition")
	}
	if !slices.Equal(cond.Values(), []string{"43584", "47144"}) {
		t.Errorf("excluded values = %v", cond.Values())
	}
	if len(q.Filters.Must()) != 0 {
		t.Errorf("unexpected must conditions: %v", q.Filters.Must())
	}
}

func TestBuild_TaxonAndMetadata(t *testing.T) {
	c := NewComposer(&mockEmbedder{vec: []float32{1}}, ComposerConfig{
		K:               10,
		MetadataFilters: []string{"continent", "quality_grade"},
	})
	taxon := 3
	req := newRequest(t, &taxon, 0, 0, map[string]string{
		"continent":      "Africa",
		"observer_login": "ignored",
	})

	q, err := c.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	must := q.Filters.Must()
	if len(must) != 2 {
		t.Fatalf("must = %v", must)
	}
	if cond, ok := findCondition(must, FieldTaxonIDs); !ok || !slices.Equal(cond.Values(), []string{"3"}) {
		t.Errorf("taxon condition = %v", cond.Values())
	}
	if cond, ok := findCondition(must, "continent"); !ok || cond.Values()[0] != "Africa" {
		t.Errorf("continent condition missing")
	}
	if _, ok := findCondition(must, "observer_login"); ok {
		t.Error("filters not enabled in config must be ignored")
	}
}

func TestBuild_NormalizeFlag(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}

	c := NewComposer(emb, ComposerConfig{K: 10})
	if _, err := c.Build(context.Background(), newRequest(t, nil, 0, 0, nil)); err != nil {
		t.Fatal(err)
	}
	if emb.normalize {
		t.Error("normalize should be off")
	}

	c = NewComposer(emb, ComposerConfig{K: 10, NormalizeQuery: true})
	if _, err := c.Build(context.Background(), newRequest(t, nil, 0, 0, nil)); err != nil {
		t.Fatal(err)
	}
	if !emb.normalize {
		t.Error("config default should force normalization")
	}
}

func TestSearch_SecondPage(t *testing.T) {
	repo := &mockRepo{ranked: []string{"a", "b", "c", "d", "e"}}
	svc := New(NewComposer(&mockEmbedder{vec: []float32{1}}, ComposerConfig{K: 100}), repo)

	page, err := svc.Search(context.Background(), newRequest(t, nil, 1, 2, nil))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	var ids []string
	for _, h := range page.Hits() {
		ids = append(ids, h.PhotoID())
	}
	if !slices.Equal(ids, []string{"c", "d"}) {
		t.Errorf("hits = %v, want [c d]", ids)
	}
	if page.Page() != 1 || page.PerPage() != 2 || page.Total() != 5 {
		t.Errorf("page=%d perPage=%d total=%d", page.Page(), page.PerPage(), page.Total())
	}
}

func TestSearch_ImageQuery(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1}}
	svc := New(NewComposer(emb, ComposerConfig{K: 10}), &mockRepo{})

	req, err := request.New(domain.ImageInput([]byte{0xFF, 0xD8}), nil, 0, 0, false, nil, limits)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Search(context.Background(), &req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if emb.in.Kind() != domain.InputImage {
		t.Errorf("embedded kind = %s", emb.in.Kind())
	}
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name string
		emb  *mockEmbedder
		repo *mockRepo
	}{
		{"embedding failure", &mockEmbedder{err: domain.ErrEmbeddingProviderError}, &mockRepo{}},
		{"index failure", &mockEmbedder{vec: []float32{1}}, &mockRepo{err: db.ErrUnavailable}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(NewComposer(tt.emb, ComposerConfig{K: 10}), tt.repo)
			_, err := svc.Search(context.Background(), newRequest(t, nil, 0, 0, nil))
			if !errors.Is(err, domain.ErrSearchFailed) {
				t.Fatalf("expected ErrSearchFailed, got %v", err)
			}
		})
	}
}
