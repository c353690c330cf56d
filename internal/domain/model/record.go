// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/argos/internal/domain/types"
)

// Param is an informational parameter kept for the Parameters sheet.
type Param struct {
	Name  string
	Value string
}

// MeasurementRecord is the normalized parameter set of one decoded trace.
type MeasurementRecord struct {
	FileID          string // trace filename, unique per run
	EmbeddedName    string // filename recorded inside the trace, may be empty
	Wavelength      string // as decoded
	Band            string // normalized wavelength
	RefractiveIndex string // truncated canonical form
	PulseWidth      string // as decoded
	CableID         string
	TotalLengthKm   types.Optional[float64]
	Timestamp       types.Optional[time.Time]
	RangeKm         types.Optional[int]
	Extra           []Param // sorted by name
}

// Dataset is one batch of normalized traces, in input order.
type Dataset struct {
	Records []MeasurementRecord
	Events  []EventRecord
}

// EventsOf returns the events belonging to fileID, in dataset order.
func (d Dataset) EventsOf(fileID string) []EventRecord {
	var out []EventRecord
	for _, e := range d.Events {
		if e.FileID == fileID {
			out = append(out, e)
		}
	}
	return out
}
