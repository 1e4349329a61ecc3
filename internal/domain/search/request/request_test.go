package request

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

var limits = Limits{DefaultPerPage: 20, MaxPerPage: 100}

func TestNew_Defaults(t *testing.T) {
	r, err := New(domain.TextInput("otter"), nil, 0, 0, false, nil, limits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query().Text() != "otter" {
		t.Errorf("Query() = %q", r.Query().Text())
	}
	if r.PerPage() != 20 {
		t.Errorf("PerPage() = %d, want 20", r.PerPage())
	}
	if r.Page() != 0 || r.Offset() != 0 {
		t.Errorf("Page/Offset = %d/%d", r.Page(), r.Offset())
	}
	if _, ok := r.TaxonID(); ok {
		t.Error("TaxonID should be absent")
	}
	if r.Metadata() != nil {
		t.Errorf("Metadata() = %v", r.Metadata())
	}
}

func TestNew_Pagination(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		perPage     int
		wantPage    int
		wantPerPage int
		wantOffset  int
	}{
		{"second page", 1, 2, 1, 2, 2},
		{"negative page", -3, 10, 0, 10, 0},
		{"zero per page", 2, 0, 2, 20, 40},
		{"negative per page", 0, -1, 0, 20, 0},
		{"per page over max", 1, 1000, 1, 100, 100},
		{"huge page", 922337203685477580, 20, MaxOffset / 20, 20, MaxOffset},
		{"max int page", math.MaxInt, 0, MaxOffset / 20, 20, MaxOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(domain.TextInput("q"), nil, tt.page, tt.perPage, false, nil, limits)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Page() != tt.wantPage || r.PerPage() != tt.wantPerPage || r.Offset() != tt.wantOffset {
				t.Errorf("page/perPage/offset = %d/%d/%d, want %d/%d/%d",
					r.Page(), r.PerPage(), r.Offset(), tt.wantPage, tt.wantPerPage, tt.wantOffset)
			}
		})
	}
}

func TestNew_ZeroLimitsUsePackageDefaults(t *testing.T) {
	r, err := New(domain.TextInput("q"), nil, 0, 0, false, nil, Limits{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.PerPage() != DefaultPerPage {
		t.Errorf("PerPage() = %d, want %d", r.PerPage(), DefaultPerPage)
	}
}

func TestNew_InvalidQuery(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Input
	}{
		{"empty text", domain.TextInput("")},
		{"empty image", domain.ImageInput(nil)},
		{"zero input", domain.Input{}},
		{"too long", domain.TextInput(strings.Repeat("x", MaxQueryLength+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.in, nil, 0, 0, false, nil, limits)
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestNew_TaxonIDIsCopied(t *testing.T) {
	id := 5
	r, err := New(domain.TextInput("q"), &id, 0, 0, false, nil, limits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id = 9
	got, ok := r.TaxonID()
	if !ok || got != 5 {
		t.Errorf("TaxonID() = %d, %v; want 5, true", got, ok)
	}
}

func TestNew_MetadataDropsBlanks(t *testing.T) {
	r, err := New(domain.TextInput("q"), nil, 0, 0, true, map[string]string{
		"continent":     " Europe ",
		"quality_grade": "",
	}, limits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Metadata()) != 1 || r.Metadata()["continent"] != "Europe" {
		t.Errorf("Metadata() = %v", r.Metadata())
	}
	if !r.Normalize() {
		t.Error("Normalize() = false")
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		raw  string
		def  int
		want int
	}{
		{"", 7, 7},
		{"3", 7, 3},
		{" 4 ", 7, 4},
		{"abc", 7, 7},
		{"-1", 7, -1},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.raw, tt.def); got != tt.want {
			t.Errorf("ParseInt(%q, %d) = %d, want %d", tt.raw, tt.def, got, tt.want)
		}
	}
}

func TestParseTaxonID(t *testing.T) {
	if ParseTaxonID("") != nil || ParseTaxonID("x") != nil || ParseTaxonID("0") != nil {
		t.Error("expected nil for empty, invalid and non-positive ids")
	}
	if got := ParseTaxonID("42"); got == nil || *got != 42 {
		t.Errorf("ParseTaxonID(42) = %v", got)
	}
}

func TestNew_HugeParsedPageDoesNotOverflow(t *testing.T) {
	r, err := New(domain.TextInput("otter"), nil, ParseInt("922337203685477580", 0), 20, false, nil, limits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Offset() < 0 || r.Offset() > MaxOffset {
		t.Errorf("Offset() = %d, want within [0, %d]", r.Offset(), MaxOffset)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "on", "yes"} {
		if !ParseBool(s) {
			t.Errorf("ParseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"", "0", "false", "nope"} {
		if ParseBool(s) {
			t.Errorf("ParseBool(%q) = true", s)
		}
	}
}
