package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// CSV column names.
const (
	ColPhotoID       = "photo_id"
	ColExtension     = "extension"
	ColTaxonID       = "taxon_id"
	ColAncestry      = "ancestry"
	ColContinent     = "continent"
	ColObserverLogin = "observer_login"
	ColObservedOn    = "observed_on"
	ColQualityGrade  = "quality_grade"
)

var requiredColumns = []string{ColPhotoID, ColExtension, ColTaxonID, ColAncestry}

// RecordReader streams photo records from CSV with a header row.
type RecordReader struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

// NewRecordReader reads the header. A header missing any required column
// yields domain.ErrMalformedCSV.
func NewRecordReader(r io.Reader) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrMalformedCSV, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", domain.ErrMalformedCSV, strings.Join(missing, ", "))
	}

	return &RecordReader{r: cr, cols: cols, line: 1}, nil
}

// Next returns the next record, io.EOF at the end, or an error wrapping
// domain.ErrInvalidRecord for a row that cannot be used.
func (rr *RecordReader) Next() (photo.Record, error) {
	row, err := rr.r.Read()
	rr.line++
	if errors.Is(err, io.EOF) {
		return photo.Record{}, io.EOF
	}
	if err != nil {
		return photo.Record{}, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidRecord, rr.line, err)
	}

	taxonID, err := strconv.Atoi(rr.field(row, ColTaxonID))
	if err != nil {
		return photo.Record{}, fmt.Errorf("%w: line %d: taxon_id: %w", domain.ErrInvalidRecord, rr.line, err)
	}

	rec, err := photo.NewRecord(
		rr.field(row, ColPhotoID),
		rr.field(row, ColExtension),
		taxonID,
		rr.field(row, ColAncestry),
		photo.Metadata{
			Continent:     rr.field(row, ColContinent),
			ObserverLogin: rr.field(row, ColObserverLogin),
			ObservedOn:    rr.field(row, ColObservedOn),
			QualityGrade:  rr.field(row, ColQualityGrade),
		},
	)
	if err != nil {
		return photo.Record{}, fmt.Errorf("line %d: %w", rr.line, err)
	}
	return rec, nil
}

// Line returns the 1-based line number of the last row read.
func (rr *RecordReader) Line() int { return rr.line }

func (rr *RecordReader) field(row []string, col string) string {
	i, ok := rr.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadStats counts CSV rows.
type ReadStats struct {
	Rows    int
	Skipped int
}

// ReadGroups reads every record and folds them into groups in first-seen
// order. Invalid rows are logged and skipped; only a malformed header fails.
func ReadGroups(r io.Reader, root int, logger *zap.Logger) ([]photo.Group, ReadStats, error) {
	rr, err := NewRecordReader(r)
	if err != nil {
		return nil, ReadStats{}, err
	}

	var stats ReadStats
	g := photo.NewGrouper(root)
	for {
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			stats.Skipped++
			logger.Warn("Skipping CSV row", zap.Int("line", rr.Line()), zap.Error(err))
			continue
		}
		g.Add(rec)
	}
	return g.Groups(), stats, nil
}
