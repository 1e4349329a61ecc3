package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed text query length.
	MaxQueryLength  = 4096
	DefaultPerPage  = 20
	MaxPerPage      = 100
	MaxMetadataKeys = 16
	// MaxOffset bounds page*per_page.
	MaxOffset = 100_000
)

// Limits are the configured pagination bounds.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

func (l Limits) withDefaults() Limits {
	if l.DefaultPerPage <= 0 {
		l.DefaultPerPage = DefaultPerPage
	}
	if l.MaxPerPage <= 0 {
		l.MaxPerPage = MaxPerPage
	}
	if l.DefaultPerPage > l.MaxPerPage {
		l.DefaultPerPage = l.MaxPerPage
	}
	return l
}

// Request is a validated search query.
type Request struct {
	query     domain.Input
	taxonID   *int
	page      int
	perPage   int
	normalize bool
	metadata  map[string]string
}

// New validates the query and normalizes pagination.
// page < 0 becomes 0, perPage <= 0 becomes the default, perPage above the
// maximum is clamped, and page is clamped so the offset stays within
// MaxOffset. Empty metadata values are dropped.
func New(
	query domain.Input,
	taxonID *int,
	page, perPage int,
	normalize bool,
	metadata map[string]string,
	limits Limits,
) (Request, error) {
	if query.IsEmpty() {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if query.Kind() == domain.InputText && len(query.Text()) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}

	limits = limits.withDefaults()
	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = limits.DefaultPerPage
	}
	if perPage > limits.MaxPerPage {
		perPage = limits.MaxPerPage
	}
	page = min(page, MaxOffset/perPage)

	var meta map[string]string
	for k, v := range metadata {
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if meta == nil {
			meta = make(map[string]string, len(metadata))
		}
		meta[k] = v
	}
	if len(meta) > MaxMetadataKeys {
		return Request{}, fmt.Errorf("%w: too many metadata filters (max %d)", domain.ErrInvalidQuery, MaxMetadataKeys)
	}

	var tid *int
	if taxonID != nil {
		v := *taxonID
		tid = &v
	}

	return Request{
		query:     query,
		taxonID:   tid,
		page:      page,
		perPage:   perPage,
		normalize: normalize,
		metadata:  meta,
	}, nil
}

// Query returns the text or image to search with.
func (r *Request) Query() domain.Input { return r.query }

// TaxonID returns the optional taxon filter.
func (r *Request) TaxonID() (int, bool) {
	if r.taxonID == nil {
		return 0, false
	}
	return *r.taxonID, true
}

// Page returns the 0-based page number.
func (r *Request) Page() int { return r.page }

// PerPage returns the page size.
func (r *Request) PerPage() int { return r.perPage }

// Offset returns page * per_page.
func (r *Request) Offset() int { return r.page * r.perPage }

// Normalize reports whether the query vector should be L2-normalized.
func (r *Request) Normalize() bool { return r.normalize }

// Metadata returns the requested metadata filters (field → value).
func (r *Request) Metadata() map[string]string { return r.metadata }

// ParseInt parses raw as a decimal integer, returning def when raw is empty
// or unparseable.
func ParseInt(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// ParseTaxonID parses an optional taxon id; empty or invalid input means no filter.
func ParseTaxonID(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// ParseBool accepts the usual form spellings of true.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
