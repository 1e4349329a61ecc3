package photo

import "slices"

// Group folds every record sharing (photo_id, extension) into one ingestion item.
// Primary taxon and metadata come from the first record seen.
type Group struct {
	first    Record
	taxonIDs []int
	rows     int
}

// PhotoID returns the shared photo identifier.
func (g Group) PhotoID() string { return g.first.photoID }

// Extension returns the shared file extension.
func (g Group) Extension() string { return g.first.extension }

// TaxonID returns the primary taxon (first row).
func (g Group) TaxonID() int { return g.first.taxonID }

// TaxonIDs returns the sorted union of every member's TaxonIDs.
func (g Group) TaxonIDs() []int { return g.taxonIDs }

// Metadata returns the metadata of the first row.
func (g Group) Metadata() Metadata { return g.first.meta }

// Rows returns how many CSV rows were folded into the group.
func (g Group) Rows() int { return g.rows }

// Grouper accumulates records into groups, preserving first-seen order.
type Grouper struct {
	root   int
	index  map[Key]int
	groups []Group
}

// NewGrouper creates a Grouper that strips root from ancestry lists.
func NewGrouper(root int) *Grouper {
	return &Grouper{root: root, index: make(map[Key]int)}
}

// Add folds r into its group.
func (g *Grouper) Add(r Record) {
	key := r.Key()
	i, ok := g.index[key]
	if !ok {
		g.index[key] = len(g.groups)
		g.groups = append(g.groups, Group{first: r, taxonIDs: r.TaxonIDs(g.root), rows: 1})
		return
	}

	grp := &g.groups[i]
	merged := slices.Concat(grp.taxonIDs, r.TaxonIDs(g.root))
	slices.Sort(merged)
	grp.taxonIDs = slices.Compact(merged)
	grp.rows++
}

// Groups returns the accumulated groups in first-seen order.
func (g *Grouper) Groups() []Group { return g.groups }

// Len returns the number of distinct groups.
func (g *Grouper) Len() int { return len(g.groups) }

// GroupRecords is a convenience wrapper over Grouper.
func GroupRecords(records []Record, root int) []Group {
	g := NewGrouper(root)
	for _, r := range records {
		g.Add(r)
	}
	return g.Groups()
}
