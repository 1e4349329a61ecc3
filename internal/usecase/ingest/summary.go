package ingest

import (
	"time"

	"go.uber.org/zap"
)

// Summary reports the outcome of one run.
type Summary struct {
	Rows         int
	SkippedRows  int
	Groups       int
	Committed    int
	Excluded     int
	Errored      int
	CommitFailed int
	CapReached   bool
	Duration     time.Duration
}

// Fields renders the summary as log fields.
func (s Summary) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("rows", s.Rows),
		zap.Int("skipped_rows", s.SkippedRows),
		zap.Int("groups", s.Groups),
		zap.Int("committed", s.Committed),
		zap.Int("excluded", s.Excluded),
		zap.Int("errored", s.Errored),
		zap.Int("commit_failed", s.CommitFailed),
		zap.Bool("cap_reached", s.CapReached),
		zap.Duration("duration", s.Duration),
	}
}
