package photoindex

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// Hash field names of a photo document.
const (
	FieldPhotoID       = "photo_id"
	FieldExtension     = "extension"
	FieldTaxonID       = "taxon_id"
	FieldTaxonIDs      = "taxon_ids"
	FieldContinent     = "continent"
	FieldObserverLogin = "observer_login"
	FieldObservedOn    = "observed_on"
	FieldQualityGrade  = "quality_grade"
	FieldEmbedding     = "embedding"
)

// TaxonIDSeparator joins taxon_ids inside the TAG field.
const TaxonIDSeparator = ","

// buildHashFields converts a photo Document into a flat map for HSET.
// Empty metadata values are omitted.
func buildHashFields(doc *photo.Document) map[string]string {
	m := map[string]string{
		FieldPhotoID:   doc.PhotoID(),
		FieldExtension: doc.Extension(),
		FieldTaxonID:   strconv.Itoa(doc.TaxonID()),
		FieldTaxonIDs:  joinInts(doc.TaxonIDs(), TaxonIDSeparator),
		FieldEmbedding: db.VectorBytes(doc.Embedding()),
	}

	meta := doc.Metadata()
	for k, v := range map[string]string{
		FieldContinent:     meta.Continent,
		FieldObserverLogin: meta.ObserverLogin,
		FieldObservedOn:    meta.ObservedOn,
		FieldQualityGrade:  meta.QualityGrade,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}
