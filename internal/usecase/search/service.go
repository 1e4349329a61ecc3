// Package search answers photo similarity queries.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/request"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/logger"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// Service composes and runs searches.
type Service struct {
	composer *Composer
	repo     Repository
}

// New creates a search service.
func New(composer *Composer, repo Repository) *Service {
	return &Service{composer: composer, repo: repo}
}

// Search runs the request and returns one page of hits. Every failure is
// wrapped in domain.ErrSearchFailed.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	start := time.Now()
	kind := req.Query().Kind().String()

	page, err := s.search(ctx, req)
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(kind, "error").Inc()
		logger.From(ctx).Error("Search failed", zap.String("input", kind), zap.Error(err))
		return result.Page{}, fmt.Errorf("%w: %w", domain.ErrSearchFailed, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(kind, "success").Inc()
	return page.WithWindow(req.Page(), req.PerPage()), nil
}

func (s *Service) search(ctx context.Context, req *request.Request) (result.Page, error) {
	q, err := s.composer.Build(ctx, req)
	if err != nil {
		return result.Page{}, err
	}
	page, err := s.repo.Search(ctx, q)
	if err != nil {
		return result.Page{}, fmt.Errorf("search index: %w", err)
	}
	return page, nil
}
