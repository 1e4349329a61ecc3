package db

import "testing"

func TestVectorBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", nil, ""},
		{"one", []float32{1}, "\x00\x00\x80\x3f"},
		{"two", []float32{1, -2}, "\x00\x00\x80\x3f\x00\x00\x00\xc0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VectorBytes(tt.in); got != tt.want {
				t.Errorf("VectorBytes(%v) = % x, want % x", tt.in, got, tt.want)
			}
		})
	}
}
