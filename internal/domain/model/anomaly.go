package model

import "github.com/okian/argos/internal/domain/types"

// Column names shared by the report tables and the out-of-spec ledger.
const (
	ColFile            = "File"
	ColMetaName        = "MetaName"
	ColEvent           = "Event"
	ColRefractiveIndex = "RefractiveIndex"
	ColPulseWidth      = "PulseWidth"
	ColWavelength      = "Wavelength"
	ColCableID         = "CableID"
	ColTotalLength     = "TotalLength(km)"
	ColDateTime        = "DateTime"
	ColRange           = "Range(km)"
	ColEventType       = "EventType"
	ColDistance        = "Distance(km)"
	ColAttenuation     = "Attenuation(dB)"
	ColReflectance     = "Reflectance(dB)"
	ColSlope           = "Slope"
	ColAnomaly         = "Anomaly"
)

// Field is one named cell of an anomaly.
type Field struct {
	Column string
	Value  types.Value
}

// Anomaly is one rule violation: its kind plus the fields needed for triage.
type Anomaly struct {
	Kind   string
	Fields []Field
}

// Get returns the value of column, or absent.
func (a Anomaly) Get(column string) types.Value {
	if column == ColAnomaly {
		return types.Text(a.Kind)
	}
	for _, f := range a.Fields {
		if f.Column == column {
			return f.Value
		}
	}
	return types.Absent()
}

// RecordFields returns the triage fields every record-level rule reports.
func RecordFields(r MeasurementRecord, extra ...Field) []Field {
	fields := []Field{
		{Column: ColFile, Value: types.Text(r.FileID)},
		{Column: ColMetaName, Value: types.TextOrAbsent(r.EmbeddedName)},
		{Column: ColRefractiveIndex, Value: types.TextOrAbsent(r.RefractiveIndex)},
		{Column: ColPulseWidth, Value: types.TextOrAbsent(r.PulseWidth)},
	}
	return append(fields, extra...)
}
