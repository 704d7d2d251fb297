package domain

// EventKind discriminates the items of the extractor's output sequence.
type EventKind int

const (
	// EventRecord carries a successfully parsed Record.
	EventRecord EventKind = iota

	// EventParseError carries a candidate frame that was not valid JSON.
	EventParseError

	// EventOverflow reports bytes dropped because the buffer hit its cap.
	EventOverflow
)

// String returns a human-readable representation of the kind.
func (k EventKind) String() string {
	switch k {
	case EventRecord:
		return "record"
	case EventParseError:
		return "parse_error"
	case EventOverflow:
		return "overflow"
	default:
		return "unknown"
	}
}

// Event is one item produced by the frame extractor.
type Event struct {
	Kind EventKind

	// Record is set for EventRecord.
	Record Record

	// Raw is the offending candidate for EventParseError.
	Raw string

	// Err is the decode error for EventParseError.
	Err error

	// Dropped is the number of discarded bytes for EventOverflow.
	Dropped int
}
