// Package photoindex stores photo documents as hashes under one FT index
// and runs KNN queries against it.
package photoindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/batch"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
)

// store is the consumer interface for the photo index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) ([]error, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config describes the index layout.
type Config struct {
	Name        string
	KeyPrefix   string
	Dimensions  int
	HNSWM       int
	EFConstruct int
}

// Repo writes and queries photo documents.
type Repo struct {
	store store
	cfg   Config
}

// New creates a photo index repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string { return r.cfg.Name }

// DocPrefix returns the hash key prefix covered by the index.
func (r *Repo) DocPrefix() string { return r.cfg.KeyPrefix + r.cfg.Name + ":" }

// docKey is <prefix><photo_id>.<extension>, one hash per ingested group.
func (r *Repo) docKey(doc *photo.Document) string {
	return r.DocPrefix() + doc.PhotoID() + "." + doc.Extension()
}

// photoIDFromKey inverts docKey.
func (r *Repo) photoIDFromKey(key string) string {
	id := strings.TrimPrefix(key, r.DocPrefix())
	if i := strings.LastIndexByte(id, '.'); i > 0 {
		id = id[:i]
	}
	return id
}

// Definition builds the FT.CREATE schema for photo documents.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	def, err := db.NewIndex(r.cfg.Name).
		Prefix(r.DocPrefix()).
		Tag(FieldPhotoID).
		TagList(FieldTaxonIDs, TaxonIDSeparator).
		Numeric(FieldTaxonID).
		Tag(FieldContinent).
		Tag(FieldQualityGrade).
		Tag(FieldObserverLogin).
		VectorHNSW(FieldEmbedding, r.cfg.Dimensions, db.DistanceCosine, r.cfg.HNSWM, r.cfg.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build index definition: %w", err)
	}
	return def, nil
}

// Recreate drops the index together with its documents and creates it again.
// A missing index is not an error.
func (r *Repo) Recreate(ctx context.Context) error {
	def, err := r.Definition()
	if err != nil {
		return err
	}

	if err := r.store.DropIndex(ctx, r.cfg.Name, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", r.cfg.Name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.cfg.Name, err)
	}
	return nil
}

// BulkCommit writes docs in one pipelined round trip. Per-document failures
// are reported in the Report; an error return means the engine was unreachable.
func (r *Repo) BulkCommit(ctx context.Context, docs []photo.Document) (batch.Report, error) {
	if len(docs) == 0 {
		return batch.NewReport(nil), nil
	}

	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		items[i] = db.HashSetItem{
			Key:    r.docKey(&docs[i]),
			Fields: buildHashFields(&docs[i]),
		}
	}

	errs, err := r.store.HSetMulti(ctx, items)
	if err != nil {
		return batch.Report{}, fmt.Errorf("bulk commit %d docs: %w", len(docs), err)
	}

	results := make([]batch.Result, len(docs))
	for i := range docs {
		id := docs[i].PhotoID()
		if i < len(errs) && errs[i] != nil {
			results[i] = batch.NewFailed(id, errs[i])
			continue
		}
		results[i] = batch.NewCommitted(id)
	}
	return batch.NewReport(results), nil
}

// Search runs a KNN query. Hits carry cosine similarity, best first.
// Unset index, vector and return fields are defaulted on a copy of in.
func (r *Repo) Search(ctx context.Context, in *db.KNNQuery) (result.Page, error) {
	q := *in
	if q.IndexName == "" {
		q.IndexName = r.cfg.Name
	}
	if q.VectorField == "" {
		q.VectorField = FieldEmbedding
	}
	if len(q.ReturnFields) == 0 {
		q.ReturnFields = []string{FieldPhotoID}
	}

	sr, err := r.store.SearchKNN(ctx, &q)
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", q.IndexName, err)
	}
	return r.toPage(sr), nil
}

func (r *Repo) toPage(sr *db.SearchResult) result.Page {
	if sr == nil {
		return result.NewPage(nil, 0, 0, 0)
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := e.Fields[FieldPhotoID]
		if id == "" {
			id = r.photoIDFromKey(e.Key)
		}
		hits = append(hits, result.NewHit(id, e.Score))
	}
	return result.NewPage(hits, sr.Total, 0, 0)
}
