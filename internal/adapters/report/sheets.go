// Package report renders a validation run: the three-sheet workbook
// (parameters, events, out-of-spec ledger) and the run summary.
package report

import (
	"sort"

	"github.com/okian/argos/internal/domain/ledger"
	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/types"
)

// Sheet names.
const (
	SheetParameters = "Parameters"
	SheetEvents     = "Events"
	SheetOutOfSpec  = "OutOfSpec"
)

// Sheet is one table of the workbook.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]types.Value
}

// Workbook is the ordered set of sheets of one run.
type Workbook struct {
	Sheets []Sheet
}

var parameterColumns = []string{
	model.ColFile, model.ColMetaName, model.ColWavelength, model.ColRefractiveIndex,
	model.ColPulseWidth, model.ColCableID, model.ColTotalLength, model.ColDateTime, model.ColRange,
}

var eventColumns = []string{
	model.ColFile, model.ColMetaName, model.ColEvent, model.ColEventType,
	model.ColDistance, model.ColAttenuation, model.ColReflectance, model.ColSlope,
}

// Build lays out the dataset and the ledger as workbook sheets.
func Build(ds model.Dataset, l ledger.Ledger) Workbook {
	return Workbook{Sheets: []Sheet{
		Parameters(ds.Records),
		Events(ds.Events),
		OutOfSpec(l),
	}}
}

// Parameters renders one row per trace. Informational parameters follow the
// typed columns, sorted by name; a trace lacking one gets an empty cell.
func Parameters(records []model.MeasurementRecord) Sheet {
	extraSet := make(map[string]struct{})
	for _, r := range records {
		for _, p := range r.Extra {
			extraSet[p.Name] = struct{}{}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for name := range extraSet {
		extras = append(extras, name)
	}
	sort.Strings(extras)

	s := Sheet{Name: SheetParameters, Columns: append(append([]string(nil), parameterColumns...), extras...)}
	for _, r := range records {
		row := []types.Value{
			types.Text(r.FileID),
			types.TextOrAbsent(r.EmbeddedName),
			types.TextOrAbsent(r.Wavelength),
			types.TextOrAbsent(r.RefractiveIndex),
			types.TextOrAbsent(r.PulseWidth),
			types.TextOrAbsent(r.CableID),
			types.FromFloat(r.TotalLengthKm),
			types.FromTime(r.Timestamp),
			types.FromInt(r.RangeKm),
		}
		byName := make(map[string]string, len(r.Extra))
		for _, p := range r.Extra {
			byName[p.Name] = p.Value
		}
		for _, name := range extras {
			v, ok := byName[name]
			if !ok {
				row = append(row, types.Absent())
				continue
			}
			row = append(row, types.Text(v))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Events renders one row per trace event.
func Events(events []model.EventRecord) Sheet {
	s := Sheet{Name: SheetEvents, Columns: append([]string(nil), eventColumns...)}
	for _, e := range events {
		s.Rows = append(s.Rows, []types.Value{
			types.Text(e.FileID),
			types.TextOrAbsent(e.EmbeddedName),
			types.Integer(int64(e.Index)),
			types.TextOrAbsent(e.Label()),
			types.FromFloat(e.DistanceKm),
			types.FromFloat(e.AttenuationDb),
			types.FromFloat(e.ReflectanceDb),
			types.FromFloat(e.Slope),
		})
	}
	return s
}

// OutOfSpec renders the ledger.
func OutOfSpec(l ledger.Ledger) Sheet {
	return Sheet{Name: SheetOutOfSpec, Columns: l.Columns(), Rows: l.Table()}
}
