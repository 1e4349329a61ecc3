package search

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/search/filter"
	"github.com/kailas-cloud/photosearch/internal/domain/search/request"
)

// Index field names the composer filters on.
const (
	FieldEmbedding = "embedding"
	FieldTaxonIDs  = "taxon_ids"
)

// ComposerConfig holds process-wide query settings.
type ComposerConfig struct {
	K             int
	NumCandidates int
	// ExcludedTaxonIDs are never returned, whatever the request asks for.
	ExcludedTaxonIDs []int
	// MetadataFilters lists the request metadata keys that become tag filters.
	MetadataFilters []string
	// NormalizeQuery normalizes every query vector regardless of the request flag.
	NormalizeQuery bool
}

// Composer turns a search request into one KNN query.
type Composer struct {
	embed    Embedder
	cfg      ComposerConfig
	excluded []string
}

// NewComposer creates a query composer.
func NewComposer(embed Embedder, cfg ComposerConfig) *Composer {
	excluded := make([]string, 0, len(cfg.ExcludedTaxonIDs))
	for _, id := range cfg.ExcludedTaxonIDs {
		excluded = append(excluded, strconv.Itoa(id))
	}
	slices.Sort(excluded)
	return &Composer{
		embed:    embed,
		cfg:      cfg,
		excluded: slices.Compact(excluded),
	}
}

// Build embeds the request query and assembles filters and paging.
func (c *Composer) Build(ctx context.Context, req *request.Request) (*db.KNNQuery, error) {
	vec, err := c.embed.Embed(ctx, req.Query(), req.Normalize() || c.cfg.NormalizeQuery)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	filters, err := c.filters(req)
	if err != nil {
		return nil, err
	}

	return &db.KNNQuery{
		VectorField:   FieldEmbedding,
		Filters:       filters,
		Vector:        vec,
		K:             c.cfg.K,
		NumCandidates: c.cfg.NumCandidates,
		Offset:        req.Offset(),
		Limit:         req.PerPage(),
	}, nil
}

func (c *Composer) filters(req *request.Request) (filter.Expression, error) {
	var must, mustNot []filter.Condition

	if len(c.excluded) > 0 {
		cond, err := filter.NewMatchAny(FieldTaxonIDs, c.excluded...)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("excluded taxa: %w", err)
		}
		mustNot = append(mustNot, cond)
	}

	if id, ok := req.TaxonID(); ok {
		cond, err := filter.NewMatch(FieldTaxonIDs, strconv.Itoa(id))
		if err != nil {
			return filter.Expression{}, fmt.Errorf("taxon filter: %w", err)
		}
		must = append(must, cond)
	}

	meta := req.Metadata()
	for _, key := range c.cfg.MetadataFilters {
		v, ok := meta[key]
		if !ok {
			continue
		}
		cond, err := filter.NewMatch(key, v)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("metadata filter: %w", err)
		}
		must = append(must, cond)
	}

	expr, err := filter.NewExpression(must, mustNot)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("build filters: %w", err)
	}
	return expr, nil
}
