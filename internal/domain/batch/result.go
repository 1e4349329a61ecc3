// Package batch describes the outcome of a bulk commit.
package batch

// ItemStatus is the commit outcome of a single document.
type ItemStatus string

// Commit status values.
const (
	StatusCommitted ItemStatus = "committed"
	StatusFailed    ItemStatus = "failed"
)

// Result is the outcome of committing one document.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewCommitted creates a successful result.
func NewCommitted(id string) Result { return Result{id: id, status: StatusCommitted} }

// NewFailed creates a failed result.
func NewFailed(id string, err error) Result { return Result{id: id, status: StatusFailed, err: err} }

// ID returns the photo identifier.
func (r Result) ID() string { return r.id }

// Status returns the commit outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Report collects per-document results of one bulk commit, in submission order.
type Report struct {
	results []Result
}

// NewReport wraps results.
func NewReport(results []Result) Report { return Report{results: results} }

// Results returns every per-document result.
func (r Report) Results() []Result { return r.results }

// Succeeded counts committed documents.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.results {
		if res.status == StatusCommitted {
			n++
		}
	}
	return n
}

// Failed returns only the failed results.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.results {
		if res.status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}
