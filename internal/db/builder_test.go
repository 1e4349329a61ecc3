package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_PhotoSchema(t *testing.T) {
	def, err := NewIndex("photos").
		Prefix("photosearch:photos:").
		Tag("photo_id").
		TagList("taxon_ids", ",").
		Numeric("taxon_id").
		VectorHNSW("embedding", 512, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if def.Name != "photos" || len(def.Prefixes) != 1 || def.Prefixes[0] != "photosearch:photos:" {
		t.Errorf("name/prefixes = %q %v", def.Name, def.Prefixes)
	}

	wantKinds := []FieldKind{KindTag, KindTag, KindNumeric, KindVector}
	if len(def.Fields) != len(wantKinds) {
		t.Fatalf("fields = %d, want %d", len(def.Fields), len(wantKinds))
	}
	for i, k := range wantKinds {
		if def.Fields[i].Kind != k {
			t.Errorf("field %s kind = %s, want %s", def.Fields[i].Name, def.Fields[i].Kind, k)
		}
	}
	if def.Fields[1].Separator != "," {
		t.Errorf("taxon_ids separator = %q", def.Fields[1].Separator)
	}

	vf, ok := def.VectorField()
	if !ok {
		t.Fatal("vector field not found")
	}
	if vf.Dim != 512 || vf.M != 16 || vf.EFConstruct != 200 || vf.Distance != DistanceCosine {
		t.Errorf("vector field = %+v", vf)
	}
}

func TestIndexBuilder_BuildCopies(t *testing.T) {
	b := NewIndex("idx").Tag("a")
	first, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	b.Prefix("late:")
	if len(first.Prefixes) != 0 {
		t.Errorf("built definition changed after Build: %v", first.Prefixes)
	}
}

func TestIndexBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("a"), "name is required"},
		{"bad name", NewIndex("bad name").Tag("a"), "invalid characters"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"blank field", NewIndex("idx").Tag(""), "has no name"},
		{"duplicate", NewIndex("idx").Tag("a").Numeric("a"), "duplicate field a"},
		{"zero dim", NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 16, 200), "positive dimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_NoVectorField(t *testing.T) {
	def, err := NewIndex("idx").Tag("a").Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := def.VectorField(); ok {
		t.Error("expected no vector field")
	}
}

func TestFieldKind_String(t *testing.T) {
	if KindTag.String() != "TAG" || KindVector.String() != "VECTOR" || FieldKind(9).String() != "FieldKind(9)" {
		t.Errorf("String: %s %s %s", KindTag, KindVector, FieldKind(9))
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"photos", "a:b", "x_y-z", "A1"} {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false", s)
		}
	}
	for _, s := range []string{"", "a b", "a*", "é"} {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true", s)
		}
	}
}
