package db

// IndexBuilder assembles an IndexDefinition.
//
//	def, err := db.NewIndex("photos").
//		Prefix("photosearch:photos:").
//		TagList("taxon_ids", ",").
//		VectorHNSW("embedding", 512, db.DistanceCosine, 16, 200).
//		Build()
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts a definition for the named index.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix limits the index to keys starting with any of prefixes.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Tag adds a single-value TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: KindTag})
}

// TagList adds a TAG field holding several values joined by sep.
func (b *IndexBuilder) TagList(name, sep string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: KindTag, Separator: sep})
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.add(IndexField{Name: name, Kind: KindNumeric})
}

// VectorHNSW adds a FLOAT32 HNSW vector field. Zero m or efConstruct keep
// the engine defaults.
func (b *IndexBuilder) VectorHNSW(name string, dim int, distance DistanceMetric, m, efConstruct int) *IndexBuilder {
	return b.add(IndexField{
		Name:        name,
		Kind:        KindVector,
		Dim:         dim,
		Distance:    distance,
		M:           m,
		EFConstruct: efConstruct,
	})
}

// Build validates the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

func (b *IndexBuilder) add(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}
