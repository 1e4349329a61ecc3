package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/photosearch/internal/db"
)

// CreateIndex runs FT.CREATE for def.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	err = s.do(ctx, s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case serverSays(err, "index already exists"):
		return db.ErrIndexExists
	default:
		return wrapErr(db.OpCreateIndex, err)
	}
}

// DropIndex runs FT.DROPINDEX, adding DD when deleteDocs is set.
func (s *Store) DropIndex(ctx context.Context, name string, deleteDocs bool) error {
	args := []string{name}
	if deleteDocs {
		args = append(args, "DD")
	}

	err := s.do(ctx, s.client.B().Arbitrary("FT.DROPINDEX").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case unknownIndex(err):
		return db.ErrIndexNotFound
	default:
		return wrapErr(db.OpDropIndex, err)
	}
}

// createArgs renders everything after FT.CREATE:
// <name> ON HASH [PREFIX n p...] SCHEMA <field>...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}

	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		fa, err := fieldArgs(f)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", def.Name, err)
		}
		args = append(args, fa...)
	}
	return args, nil
}

func fieldArgs(f db.IndexField) ([]string, error) {
	switch f.Kind {
	case db.KindNumeric:
		return []string{f.Name, "NUMERIC"}, nil
	case db.KindTag:
		if f.Separator == "" {
			return []string{f.Name, "TAG"}, nil
		}
		return []string{f.Name, "TAG", "SEPARATOR", f.Separator}, nil
	case db.KindVector:
		return vectorArgs(f)
	default:
		return nil, fmt.Errorf("field %s: unsupported kind %s", f.Name, f.Kind)
	}
}

// vectorArgs renders an HNSW FLOAT32 vector field. The attribute count
// precedes the attributes, as FT.CREATE requires.
func vectorArgs(f db.IndexField) ([]string, error) {
	if f.Dim <= 0 {
		return nil, fmt.Errorf("field %s: vector dimension must be positive", f.Name)
	}

	distance := f.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if f.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(f.M))
	}
	if f.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruct))
	}

	return append([]string{f.Name, "VECTOR", db.VectorHNSW, strconv.Itoa(len(attrs))}, attrs...), nil
}
