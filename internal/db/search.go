package db

import "github.com/kailas-cloud/photosearch/internal/domain/search/filter"

// KNNQuery asks for the K nearest neighbours of Vector among documents
// passing Filters, and returns the [Offset, Offset+Limit) window of them
// ordered by ascending distance.
type KNNQuery struct {
	IndexName     string
	VectorField   string
	Vector        []float32
	K             int
	NumCandidates int // EF_RUNTIME; 0 = engine default
	Filters       filter.Expression
	Offset        int
	Limit         int // 0 = K
	ReturnFields  []string
}

// ScoreField is the alias the engine assigns to the hit distance.
func (q *KNNQuery) ScoreField() string {
	return "__" + q.VectorField + "_score"
}

// SearchResult is one window of hits. Total counts all matches, not just
// the returned ones.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a hit. Score is 1 - distance, so higher is closer.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
