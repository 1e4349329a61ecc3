// Package photo holds the ingestion-side data model: CSV records, grouped
// photos and the documents written to the index.
package photo

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

// DefaultRootTaxonID is the taxonomy root that is never stored in taxon_ids.
const DefaultRootTaxonID = 48460

// AncestrySeparator delimits ancestor ids in the ancestry column.
const AncestrySeparator = "/"

// Metadata is optional per-photo information mirrored into the index.
type Metadata struct {
	Continent     string
	ObserverLogin string
	ObservedOn    string
	QualityGrade  string
}

// Record is one CSV row: a photo observed as a single taxon.
type Record struct {
	photoID   string
	extension string
	taxonID   int
	ancestors []int
	meta      Metadata
}

// NewRecord validates and creates a Record. ancestry is the slash-delimited
// list of ancestor taxon ids; an empty ancestry is allowed.
func NewRecord(photoID, extension string, taxonID int, ancestry string, meta Metadata) (Record, error) {
	photoID = strings.TrimSpace(photoID)
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if photoID == "" {
		return Record{}, fmt.Errorf("%w: photo_id is required", domain.ErrInvalidRecord)
	}
	if extension == "" {
		return Record{}, fmt.Errorf("%w: extension is required for photo %s", domain.ErrInvalidRecord, photoID)
	}
	// Both end up in cache file names.
	if !isPathSegment(photoID) {
		return Record{}, fmt.Errorf("%w: photo_id %q is not a plain file name", domain.ErrInvalidRecord, photoID)
	}
	if !isPathSegment(extension) {
		return Record{}, fmt.Errorf("%w: extension %q is not a plain file name", domain.ErrInvalidRecord, extension)
	}

	ancestors, err := parseAncestry(ancestry)
	if err != nil {
		return Record{}, fmt.Errorf("%w: photo %s: %w", domain.ErrInvalidRecord, photoID, err)
	}

	return Record{
		photoID:   photoID,
		extension: strings.ToLower(extension),
		taxonID:   taxonID,
		ancestors: ancestors,
		meta:      meta,
	}, nil
}

func isPathSegment(s string) bool {
	return !strings.ContainsAny(s, "/\\\x00") && !strings.Contains(s, "..")
}

func parseAncestry(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, AncestrySeparator)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("ancestry element %q is not an integer", p)
		}
		out = append(out, id)
	}
	return out, nil
}

// PhotoID returns the stable photo identifier.
func (r Record) PhotoID() string { return r.photoID }

// Extension returns the lower-cased file extension without the dot.
func (r Record) Extension() string { return r.extension }

// TaxonID returns the primary taxon of the row.
func (r Record) TaxonID() int { return r.taxonID }

// Metadata returns the optional mirrored columns.
func (r Record) Metadata() Metadata { return r.meta }

// AncestryList returns the parsed ancestors, deduplicated in first-seen order,
// with root removed.
func (r Record) AncestryList(root int) []int {
	seen := make(map[int]struct{}, len(r.ancestors))
	out := make([]int, 0, len(r.ancestors))
	for _, id := range r.ancestors {
		if id == root {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// TaxonIDs returns AncestryList(root) plus the row's own taxon, sorted ascending.
func (r Record) TaxonIDs(root int) []int {
	ids := append(r.AncestryList(root), r.taxonID)
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Key identifies the group a record belongs to.
type Key struct {
	PhotoID   string
	Extension string
}

// Key returns the grouping key of the record.
func (r Record) Key() Key { return Key{PhotoID: r.photoID, Extension: r.extension} }
