package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/search/filter"
)

// SearchKNN runs FT.SEARCH with a KNN clause. Hits are sorted by distance and
// windowed by LIMIT Offset Limit over the K nearest neighbours; Total is the
// engine's count. Entry scores are cosine similarities (1 - distance).
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := validateKNN(q); err != nil {
		return nil, err
	}

	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(buildKNNArgs(q)...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if unknownIndex(err) {
			return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
		}
		return nil, wrapErr(db.OpSearch, err)
	}
	return parseKNNResult(raw, q.ScoreField())
}

func validateKNN(q *db.KNNQuery) error {
	switch {
	case q.IndexName == "":
		return errors.New("knn: index name is required")
	case q.VectorField == "":
		return errors.New("knn: vector field is required")
	case len(q.Vector) == 0:
		return errors.New("knn: vector is required")
	case q.K <= 0:
		return fmt.Errorf("knn: k must be positive, got %d", q.K)
	case q.Offset < 0 || q.Limit < 0:
		return fmt.Errorf("knn: negative window %d/%d", q.Offset, q.Limit)
	}
	return nil
}

// buildKNNArgs renders
//
//	<index> "<prefilter>=>[KNN k @field $BLOB EF_RUNTIME n]" [RETURN ...]
//	SORTBY <score> LIMIT <offset> <limit> PARAMS 2 BLOB <vec> DIALECT 2
func buildKNNArgs(q *db.KNNQuery) []string {
	var knn strings.Builder
	fmt.Fprintf(&knn, "[KNN %d @%s $BLOB", q.K, q.VectorField)
	if q.NumCandidates > 0 {
		fmt.Fprintf(&knn, " EF_RUNTIME %d", q.NumCandidates)
	}
	knn.WriteByte(']')

	pre := "*"
	if f := buildFilter(q.Filters); f != "" {
		pre = "(" + f + ")"
	}

	score := q.ScoreField()
	args := []string{q.IndexName, pre + "=>" + knn.String()}
	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)+1), score)
		args = append(args, q.ReturnFields...)
	}

	limit := q.Limit
	if limit == 0 {
		limit = q.K
	}
	return append(args,
		"SORTBY", score,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(limit),
		"PARAMS", "2", "BLOB", db.VectorBytes(q.Vector),
		"DIALECT", "2",
	)
}

// parseKNNResult reads the RESP2 reply [total, key1, [f, v, ...], key2, ...].
// Malformed pairs are skipped.
func parseKNNResult(raw []rueidis.RedisMessage, scoreField string) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("knn: parse total: %w", err)
	}

	out := &db.SearchResult{Total: int(total), Entries: make([]db.SearchEntry, 0, len(raw)/2)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: fieldMap(pairs)}
		if d, ok := entry.Fields[scoreField]; ok {
			if dist, err := strconv.ParseFloat(d, 64); err == nil {
				entry.Score = 1 - dist
			}
			delete(entry.Fields, scoreField)
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		k, kerr := pairs[j].ToString()
		v, verr := pairs[j+1].ToString()
		if kerr == nil && verr == nil {
			m[k] = v
		}
	}
	return m
}

// buildFilter renders must clauses as @key:{v1 | v2} and must-not clauses
// with a leading '-', space-separated (intersection).
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	clauses := make([]string, 0, len(expr.Must())+len(expr.MustNot()))
	for _, c := range expr.Must() {
		clauses = append(clauses, tagClause(c))
	}
	for _, c := range expr.MustNot() {
		clauses = append(clauses, "-"+tagClause(c))
	}
	return strings.Join(clauses, " ")
}

func tagClause(c filter.Condition) string {
	vals := make([]string, len(c.Values()))
	for i, v := range c.Values() {
		vals[i] = tagEscaper.Replace(v)
	}
	return "@" + c.Key() + ":{" + strings.Join(vals, " | ") + "}"
}

// tagSpecials are the characters the query parser treats as syntax inside
// a tag value.
const tagSpecials = ",.<>{}[]\"':;!@#$%^&*()-+=~|/ "

var tagEscaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(tagSpecials))
	for _, r := range tagSpecials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()
