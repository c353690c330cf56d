// Package classify maps vendor event codes to event categories and
// reconciles each trace's total length from its fiber-end event.
package classify

import (
	"sort"
	"strings"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/normalize"
	"github.com/okian/argos/internal/domain/types"
)

// Rule maps codes starting with Prefix to Type.
type Rule struct {
	Prefix string
	Type   model.EventType
}

// DefaultRules is the vendor code table. Order matters: first match wins.
var DefaultRules = []Rule{
	{Prefix: "0F9999", Type: model.Splice},
	{Prefix: "1E9999", Type: model.FiberEnd},
	{Prefix: "1F9999", Type: model.Connector},
	{Prefix: "2E9999", Type: model.FiberEnd},
	{Prefix: "0A9999LS", Type: model.Splice},
	{Prefix: "1A9999LS", Type: model.Connector},
	{Prefix: "0O99992P", Type: model.Splice},
	{Prefix: "1A9999OO", Type: model.Connector},
	{Prefix: "0A9999OO", Type: model.Splice},
	{Prefix: "0O9999LS", Type: model.Splice},
}

// Classifier applies an ordered prefix table.
type Classifier struct {
	rules []Rule
}

// New returns a classifier over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the category of code. Unknown codes are Unclassified.
func (c *Classifier) Classify(code string) model.EventType {
	code = strings.TrimSpace(code)
	for _, r := range c.rules {
		if strings.HasPrefix(code, r.Prefix) {
			return r.Type
		}
	}
	return model.Unclassified
}

// Events returns a copy of events with Type set from RawType.
func (c *Classifier) Events(events []model.EventRecord) []model.EventRecord {
	out := make([]model.EventRecord, len(events))
	for i, e := range events {
		e.Type = c.Classify(e.RawType)
		out[i] = e
	}
	return out
}

// Reconcile overwrites each record's total length with the distance of its
// farthest fiber-end event: the FiberEnd that sorts last by event index, ties
// going to the later one in input order. Records without a usable fiber-end
// keep the decoded length. Inputs are not modified.
func Reconcile(records []model.MeasurementRecord, events []model.EventRecord) []model.MeasurementRecord {
	ends := make(map[string][]model.EventRecord)
	for _, e := range events {
		if e.Type == model.FiberEnd {
			ends[e.FileID] = append(ends[e.FileID], e)
		}
	}

	out := make([]model.MeasurementRecord, len(records))
	copy(out, records)
	for i := range out {
		candidates := ends[out[i].FileID]
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(a, b int) bool { return candidates[a].Index < candidates[b].Index })
		if d, ok := candidates[len(candidates)-1].DistanceKm.Get(); ok {
			out[i].TotalLengthKm = types.Some(normalize.Round(d, 3))
		}
	}
	return out
}

// Dataset classifies the batch's events and reconciles record lengths.
func (c *Classifier) Dataset(ds model.Dataset) model.Dataset {
	events := c.Events(ds.Events)
	return model.Dataset{
		Records: Reconcile(ds.Records, events),
		Events:  events,
	}
}
