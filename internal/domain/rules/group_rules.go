package rules

import (
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/normalize"
	"github.com/okian/argos/internal/domain/types"
)

// counterSuffix is the re-acquisition counter some OTDRs append, e.g. "_2".
var counterSuffix = regexp.MustCompile(`_\d+$`)

// BaseName removes a trailing "_<n>" counter before the extension and
// lower-cases the extension. Names without extension are returned as is.
func BaseName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	stem := strings.TrimSuffix(name, ext)
	return counterSuffix.ReplaceAllString(stem, "") + strings.ToLower(ext)
}

// groupBy buckets records by key, keeping input order inside a bucket.
// Records with an empty key are left out. Keys are returned sorted.
func groupBy(records []model.MeasurementRecord, key func(model.MeasurementRecord) string) ([]string, map[string][]model.MeasurementRecord) {
	groups := make(map[string][]model.MeasurementRecord)
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], rec)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

func byBaseName(rec model.MeasurementRecord) string { return BaseName(rec.FileID) }

type fiberLengthRule struct {
	tolKm float64
}

// FiberLength flags every record of a cable whose total lengths spread more
// than tolKm. Records without a length are ignored for the spread but are
// still reported with their group.
func FiberLength(tolKm float64) Rule {
	return &fiberLengthRule{tolKm: tolKm}
}

func (r *fiberLengthRule) Name() string { return "fiber_length" }

func (r *fiberLengthRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	keys, groups := groupBy(ds.Records, func(rec model.MeasurementRecord) string {
		return strings.TrimSpace(rec.CableID)
	})
	for _, k := range keys {
		group := groups[k]
		lo, hi, n := math.Inf(1), math.Inf(-1), 0
		for _, rec := range group {
			if l, ok := rec.TotalLengthKm.Get(); ok {
				lo, hi = math.Min(lo, l), math.Max(hi, l)
				n++
			}
		}
		if n < 2 || !normalize.Exceeds(hi-lo, r.tolKm) {
			continue
		}
		for _, rec := range group {
			out = append(out, model.Anomaly{
				Kind: KindFiberLength,
				Fields: model.RecordFields(rec,
					wavelengthField(rec),
					model.Field{Column: model.ColCableID, Value: types.TextOrAbsent(rec.CableID)},
					model.Field{Column: model.ColTotalLength, Value: types.FromFloat(rec.TotalLengthKm)},
				),
			})
		}
	}
	return out
}

type spacingRule struct {
	minInterval time.Duration
}

// Spacing flags measurements of one base file taken too close together.
// Each group is ordered by timestamp (missing last) and each adjacent pair
// on the same band less than minInterval apart reports both records.
func Spacing(minInterval time.Duration) Rule {
	return &spacingRule{minInterval: minInterval}
}

func (r *spacingRule) Name() string { return "spacing" }

func (r *spacingRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	keys, groups := groupBy(ds.Records, byBaseName)
	for _, k := range keys {
		group := append([]model.MeasurementRecord(nil), groups[k]...)
		sort.SliceStable(group, func(i, j int) bool {
			a, aok := group[i].Timestamp.Get()
			b, bok := group[j].Timestamp.Get()
			if aok != bok {
				return aok
			}
			return aok && a.Before(b)
		})
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			tp, ok1 := prev.Timestamp.Get()
			tc, ok2 := cur.Timestamp.Get()
			if !ok1 || !ok2 || prev.Band != cur.Band {
				continue
			}
			if tc.Sub(tp) >= r.minInterval {
				continue
			}
			for _, rec := range []model.MeasurementRecord{prev, cur} {
				out = append(out, model.Anomaly{
					Kind:   KindSpacing,
					Fields: model.RecordFields(rec, wavelengthField(rec), dateTimeField(rec)),
				})
			}
		}
	}
	return out
}

type duplicatesRule struct{}

// Duplicates flags pairs of distinct files of one base file with identical
// timestamp and band.
//
// The scan is O(n²) over each group in input order. The first partner found
// wins and a paired file takes no part in later pairings, so the order
// decides which of several near-duplicates gets paired.
func Duplicates() Rule {
	return duplicatesRule{}
}

func (duplicatesRule) Name() string { return "duplicates" }

func (duplicatesRule) Check(ds model.Dataset) []model.Anomaly {
	var out []model.Anomaly
	keys, groups := groupBy(ds.Records, byBaseName)
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		paired := make(map[string]struct{})
		for i := range group {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if _, done := paired[a.FileID]; done {
					break
				}
				if _, done := paired[b.FileID]; done || a.FileID == b.FileID {
					continue
				}
				ta, ok1 := a.Timestamp.Get()
				tb, ok2 := b.Timestamp.Get()
				if !ok1 || !ok2 || !ta.Equal(tb) || a.Band != b.Band {
					continue
				}
				for _, rec := range []model.MeasurementRecord{a, b} {
					out = append(out, model.Anomaly{
						Kind:   KindDuplicate,
						Fields: model.RecordFields(rec, wavelengthField(rec), dateTimeField(rec)),
					})
				}
				paired[a.FileID] = struct{}{}
				paired[b.FileID] = struct{}{}
			}
		}
	}
	return out
}
