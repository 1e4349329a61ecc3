package db

import (
	"fmt"
	"strings"
)

// DistanceMetric is the vector distance used by the index.
type DistanceMetric string

// Supported metrics.
const (
	DistanceCosine DistanceMetric = "COSINE"
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
)

// VectorHNSW is the only vector algorithm the index uses.
const VectorHNSW = "HNSW"

// FieldKind is the schema type of an indexed field.
type FieldKind int

// Field kinds.
const (
	KindTag FieldKind = iota
	KindNumeric
	KindVector
)

func (k FieldKind) String() string {
	switch k {
	case KindTag:
		return "TAG"
	case KindNumeric:
		return "NUMERIC"
	case KindVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// IndexField is one SCHEMA entry.
type IndexField struct {
	Name string
	Kind FieldKind

	// Separator splits multi-value tag fields; empty means the engine default.
	Separator string

	// Vector fields only.
	Dim         int
	Distance    DistanceMetric
	M           int // HNSW max edges per node
	EFConstruct int // HNSW build-time candidate list
}

// IndexDefinition describes an FT index over hashes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate rejects definitions the engine would refuse or misread.
func (d *IndexDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("index name is required")
	}
	if !IsValidIdentifier(d.Name) {
		return fmt.Errorf("index name %q contains invalid characters", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("index %s: at least one field is required", d.Name)
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("index %s: field %d has no name", d.Name, i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("index %s: duplicate field %s", d.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Kind == KindVector && f.Dim <= 0 {
			return fmt.Errorf("index %s: vector field %s needs a positive dimension", d.Name, f.Name)
		}
	}
	return nil
}

// VectorField returns the first vector field.
func (d *IndexDefinition) VectorField() (IndexField, bool) {
	for _, f := range d.Fields {
		if f.Kind == KindVector {
			return f, true
		}
	}
	return IndexField{}, false
}

// IsValidIdentifier reports whether s is a non-empty run of ASCII letters,
// digits, '_', ':' and '-'.
func IsValidIdentifier(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) < 0
}
