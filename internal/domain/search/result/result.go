package result

// Hit is a single search hit.
type Hit struct {
	photoID string
	score   float64
}

// NewHit creates a search hit.
func NewHit(photoID string, score float64) Hit {
	return Hit{photoID: photoID, score: score}
}

// PhotoID returns the matched photo.
func (h Hit) PhotoID() string { return h.photoID }

// Score returns the cosine similarity to the query.
func (h Hit) Score() float64 { return h.score }

// Page is one page of ranked hits plus the engine-reported total.
type Page struct {
	hits    []Hit
	total   int
	page    int
	perPage int
}

// NewPage creates a result page.
func NewPage(hits []Hit, total, page, perPage int) Page {
	return Page{hits: hits, total: total, page: page, perPage: perPage}
}

// Hits returns the hits in descending score order.
func (p Page) Hits() []Hit { return p.hits }

// Total returns total_results as reported by the engine.
func (p Page) Total() int { return p.total }

// Page returns the 0-based page number.
func (p Page) Page() int { return p.page }

// PerPage returns the requested page size.
func (p Page) PerPage() int { return p.perPage }

// WithWindow returns a copy carrying the request's page and page size.
func (p Page) WithWindow(page, perPage int) Page {
	p.page = page
	p.perPage = perPage
	return p
}
