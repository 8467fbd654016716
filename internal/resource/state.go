package resource

// State is the lifecycle state of a resource.
type State int32

const (
	// Deferred: constructed but not asked to load (or reset after an unload).
	Deferred State = iota
	// Pending: a load job is outstanding or dependencies are still loading.
	Pending
	// Loaded: payload and every dependency loaded successfully.
	Loaded
	// Failed: the payload or one of its dependencies failed to load.
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Deferred:
		return "deferred"
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is Loaded or Failed.
func (s State) IsTerminal() bool {
	return s == Loaded || s == Failed
}
