package ingest

// State is the lifecycle position of one ingestion item.
type State int

// Item states. Excluded and Errored are terminal and treated alike.
const (
	StatePending State = iota
	StateResolved
	StateFaceChecked
	StateEmbedded
	StateBatched
	StateCommitted
	StateExcluded
	StateErrored
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFaceChecked:
		return "face_checked"
	case StateEmbedded:
		return "embedded"
	case StateBatched:
		return "batched"
	case StateCommitted:
		return "committed"
	case StateExcluded:
		return "excluded"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateExcluded || s == StateErrored
}

// Exclusion reasons.
const (
	reasonImage     = "image"
	reasonFace      = "face"
	reasonEmbedding = "embedding"
)
