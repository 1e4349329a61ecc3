package search

import (
	"context"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
)

// Repository runs composed KNN queries.
type Repository interface {
	Search(ctx context.Context, q *db.KNNQuery) (result.Page, error)
}

// Embedder vectorizes a query.
type Embedder interface {
	Embed(ctx context.Context, in domain.Input, normalize bool) ([]float32, error)
}
