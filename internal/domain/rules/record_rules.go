package rules

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/normalize"
	"github.com/okian/argos/internal/domain/types"
)

type bandIndexRule struct {
	bands map[string]float64
	tol   float64
}

// BandIndex flags records on a known band whose refractive index is not
// within tol of the band's nominal index. The index is compared in its
// truncated form, so trailing noise past six characters is ignored. An
// unparseable index is flagged.
func BandIndex(bands map[string]float64, tol float64) Rule {
	copied := make(map[string]float64, len(bands))
	for b, n := range bands {
		copied[normalize.Wavelength(b)] = n
	}
	return &bandIndexRule{bands: copied, tol: tol}
}

func (r *bandIndexRule) Name() string { return "band_index" }

func (r *bandIndexRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	for _, rec := range ds.Records {
		nominal, known := r.bands[rec.Band]
		if !known {
			continue
		}
		if normalize.NumericWithinTolerance(normalize.IndexValue(normalize.IndexToken(rec.RefractiveIndex)), nominal, r.tol) {
			continue
		}
		out = append(out, model.Anomaly{
			Kind:   KindBandIndex,
			Fields: model.RecordFields(rec, wavelengthField(rec)),
		})
	}
	return out
}

type referenceRule struct {
	index string
	pulse string
}

// Reference flags records whose truncated index or digit-only pulse width
// differs from the run's reference values. The two sub-checks are reported
// separately; an empty reference disables its sub-check.
func Reference(index, pulse string) Rule {
	return &referenceRule{index: strings.TrimSpace(index), pulse: strings.TrimSpace(pulse)}
}

func (r *referenceRule) Name() string { return "reference" }

func (r *referenceRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	for _, rec := range ds.Records {
		if r.index != "" && !normalize.ExactNormalizedMatch(rec.RefractiveIndex, r.index, normalize.IndexToken) {
			out = append(out, model.Anomaly{Kind: KindReferenceIndex, Fields: model.RecordFields(rec)})
		}
		if r.pulse != "" && !normalize.ExactNormalizedMatch(rec.PulseWidth, r.pulse, normalize.PulseDigits) {
			out = append(out, model.Anomaly{Kind: KindReferencePulse, Fields: model.RecordFields(rec)})
		}
	}
	return out
}

type namingRule struct {
	fold cases.Caser
}

// Naming flags records whose filename, without extension, differs
// case-insensitively from the name embedded in the trace. Traces with no
// embedded name are skipped.
func Naming() Rule {
	return &namingRule{fold: cases.Fold()}
}

func (r *namingRule) Name() string { return "naming" }

func (r *namingRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	for _, rec := range ds.Records {
		embedded := stripExt(rec.EmbeddedName)
		if embedded == "" {
			continue
		}
		if r.fold.String(stripExt(rec.FileID)) == r.fold.String(embedded) {
			continue
		}
		out = append(out, model.Anomaly{Kind: KindNaming, Fields: model.RecordFields(rec)})
	}
	return out
}

// stripExt drops the last extension. A leading dot is not an extension.
func stripExt(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

func wavelengthField(rec model.MeasurementRecord) model.Field {
	return model.Field{Column: model.ColWavelength, Value: types.TextOrAbsent(rec.Wavelength)}
}

func dateTimeField(rec model.MeasurementRecord) model.Field {
	return model.Field{Column: model.ColDateTime, Value: types.FromTime(rec.Timestamp)}
}
