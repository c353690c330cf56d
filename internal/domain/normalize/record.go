package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/types"
)

// Decoder parameter keys mapped onto MeasurementRecord fields.
const (
	keyIndex        = "index"
	keyPulseWidth   = "pulse width"
	keyWavelength   = "wavelength"
	keyCableID      = "cable ID"
	keyDateTime     = "date/time"
	keyRange        = "range"
	keyRangeDist    = "acquisition range distance"
	keyLossEnd      = "loss end"
	keyEmbeddedName = "filename"

	eventKeyPrefix = "event "
)

// droppedParams are acquisition internals that carry no triage value.
var droppedParams = map[string]struct{}{
	"BC": {}, "EOT thr": {}, "X1": {}, "X2": {}, "Y1": {}, "Y2": {},
	"acquisition offset": {}, "acquisition offset distance": {},
	"averaging time": {}, "front panel offset": {}, "loss thr": {},
	"noise floor level": {}, "num averages": {}, "num data points": {},
	"number of pulse width entries": {}, "power offset first point": {},
	"refl thr": {}, "resolution": {}, "sample spacing": {}, "trace type": {},
	"unit": {}, "build condition": {}, "cable code/fiber type": {},
	"fiber type": {}, "language": {}, "user offset": {}, "user offset distance": {},
	"noise floor scaling factor": {}, "OTDR S/N": {},
}

// renamedParams gives informational parameters their report names.
var renamedParams = map[string]string{
	"comments": "Comments",
	"operator": "Operator",
	"software": "Software",
	"supplier": "Supplier",
}

// mapped are keys consumed into typed fields rather than Extra.
var mapped = map[string]struct{}{
	keyIndex: {}, keyPulseWidth: {}, keyWavelength: {}, keyCableID: {},
	keyDateTime: {}, keyRange: {}, keyRangeDist: {}, keyEmbeddedName: {},
}

// Record builds the normalized parameter record of one trace. Sections are
// merged fixed, general, supplier; on duplicate keys the later section wins.
// The refractive index is kept in its truncated canonical form.
func Record(raw model.RawTrace) model.MeasurementRecord {
	params := make(map[string]string)
	for _, section := range []map[string]string{raw.Fixed, raw.General, raw.Supplier} {
		for k, v := range section {
			params[k] = v
		}
	}

	rec := model.MeasurementRecord{
		FileID:          raw.FileID,
		EmbeddedName:    strings.TrimSpace(raw.EmbeddedName),
		Wavelength:      strings.TrimSpace(params[keyWavelength]),
		RefractiveIndex: IndexToken(strings.TrimSpace(params[keyIndex])),
		PulseWidth:      strings.TrimSpace(params[keyPulseWidth]),
		CableID:         strings.TrimSpace(params[keyCableID]),
		TotalLengthKm:   Distance(raw.Summary[keyLossEnd]),
		Timestamp:       Timestamp(params[keyDateTime]),
		RangeKm:         rangeOf(params),
	}
	rec.Band = Wavelength(rec.Wavelength)

	for k, v := range params {
		if _, skip := mapped[k]; skip {
			continue
		}
		if _, drop := droppedParams[k]; drop {
			continue
		}
		name := k
		if renamed, ok := renamedParams[k]; ok {
			name = renamed
		}
		rec.Extra = append(rec.Extra, model.Param{Name: name, Value: v})
	}
	sort.Slice(rec.Extra, func(i, j int) bool { return rec.Extra[i].Name < rec.Extra[j].Name })
	return rec
}

func rangeOf(params map[string]string) types.Optional[int] {
	if r := Range(params[keyRange]); r.IsSet() {
		return r
	}
	return Range(params[keyRangeDist])
}

// Events builds the event records of one trace ordered by event index. Keys
// sharing an index, such as "event 3" and "Event 3", are ordered by key.
// Keys that are not "event <n>" with an integer n are ignored. The type is
// left unclassified.
func Events(raw model.RawTrace) []model.EventRecord {
	keys := make([]string, 0, len(raw.Events))
	for key := range raw.Events {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []model.EventRecord
	for _, key := range keys {
		fields := raw.Events[key]
		idx, ok := EventIndex(key)
		if !ok {
			continue
		}
		out = append(out, model.EventRecord{
			FileID:        raw.FileID,
			EmbeddedName:  strings.TrimSpace(raw.EmbeddedName),
			Index:         idx,
			RawType:       strings.TrimSpace(fields["type"]),
			DistanceKm:    Distance(fields["distance"]),
			AttenuationDb: Number(fields["splice loss"]),
			ReflectanceDb: Number(fields["refl loss"]),
			Slope:         Number(fields["slope"]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// EventIndex extracts n from an "event <n>" key, case-insensitively.
func EventIndex(key string) (int, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if !strings.HasPrefix(k, eventKeyPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(k[len(eventKeyPrefix):]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Dataset normalizes a decoded batch, keeping input order.
func Dataset(traces []model.RawTrace) model.Dataset {
	var ds model.Dataset
	for _, raw := range traces {
		ds.Records = append(ds.Records, Record(raw))
		ds.Events = append(ds.Events, Events(raw)...)
	}
	return ds
}
