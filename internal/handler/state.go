package handler

// State is the position of a handler in its execution sequence.
type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StateSessionResolved
	StateRecordFetched
	StateAssociationCreated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateSessionResolved:
		return "session_resolved"
	case StateRecordFetched:
		return "record_fetched"
	case StateAssociationCreated:
		return "association_created"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
