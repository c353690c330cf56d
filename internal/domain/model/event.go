package model

import "github.com/okian/argos/internal/domain/types"

// EventType is the semantic category of a trace event.
type EventType string

// Event categories. Unclassified keeps the vendor code in EventRecord.RawType.
const (
	Unclassified EventType = ""
	Splice       EventType = "Splice"
	FiberEnd     EventType = "FiberEnd"
	Connector    EventType = "Connector"
)

// Label returns the category name, or the vendor code for unclassified events.
func (e EventRecord) Label() string {
	if e.Type == Unclassified {
		return e.RawType
	}
	return string(e.Type)
}

// EventRecord is one key event of a trace, in decoder order.
type EventRecord struct {
	FileID        string
	EmbeddedName  string
	Index         int    // decoder-assigned, not necessarily contiguous
	RawType       string // vendor type code as decoded
	Type          EventType
	DistanceKm    types.Optional[float64]
	AttenuationDb types.Optional[float64] // splice loss
	ReflectanceDb types.Optional[float64]
	Slope         types.Optional[float64]
}
