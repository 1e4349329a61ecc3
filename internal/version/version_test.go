package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	for _, want := range []string{"photosearch", Version, "commit ", "go1."} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestString_LdflagsCommitWins(t *testing.T) {
	old := Commit
	Commit = "abc1234"
	t.Cleanup(func() { Commit = old })

	if got := String(); !strings.Contains(got, "commit abc1234") {
		t.Errorf("String() = %q", got)
	}
}
