package photo

// Document is what ends up in the index for one group that survived face
// exclusion and embedding.
type Document struct {
	group     Group
	embedding []float32
}

// NewDocument pairs a group with its image embedding.
func NewDocument(g Group, embedding []float32) Document {
	return Document{group: g, embedding: embedding}
}

// PhotoID returns the photo identifier (the document key suffix).
func (d Document) PhotoID() string { return d.group.PhotoID() }

// Extension returns the image file extension.
func (d Document) Extension() string { return d.group.Extension() }

// TaxonID returns the primary taxon.
func (d Document) TaxonID() int { return d.group.TaxonID() }

// TaxonIDs returns every taxon the photo is filed under.
func (d Document) TaxonIDs() []int { return d.group.TaxonIDs() }

// Metadata returns the mirrored optional columns.
func (d Document) Metadata() Metadata { return d.group.Metadata() }

// Embedding returns the image vector.
func (d Document) Embedding() []float32 { return d.embedding }
