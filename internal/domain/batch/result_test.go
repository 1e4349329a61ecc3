package batch

import (
	"errors"
	"testing"
)

func TestNewCommitted(t *testing.T) {
	r := NewCommitted("42")
	if r.ID() != "42" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusCommitted {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusCommitted)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewFailed(t *testing.T) {
	err := errors.New("OOM")
	r := NewFailed("43", err)
	if r.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusFailed)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestReport(t *testing.T) {
	rep := NewReport([]Result{
		NewCommitted("1"),
		NewFailed("2", errors.New("boom")),
		NewCommitted("3"),
	})

	if rep.Succeeded() != 2 {
		t.Errorf("Succeeded() = %d, want 2", rep.Succeeded())
	}
	failed := rep.Failed()
	if len(failed) != 1 || failed[0].ID() != "2" {
		t.Errorf("Failed() = %+v", failed)
	}
	if len(rep.Results()) != 3 {
		t.Errorf("Results() len = %d", len(rep.Results()))
	}
}

func TestReport_Empty(t *testing.T) {
	var rep Report
	if rep.Succeeded() != 0 || rep.Failed() != nil {
		t.Error("zero report should be empty")
	}
}
