// Package rules holds the anomaly checks applied to a normalized batch and
// the pipeline that folds their findings into one ledger.
//
// Every rule is a pure function of the dataset. Rules never read each
// other's output, so their order only affects ledger row order.
package rules

import (
	"context"
	"time"

	"github.com/okian/argos/internal/domain/ledger"
	"github.com/okian/argos/internal/domain/model"
)

// Anomaly kinds.
const (
	KindBandIndex      = "Refractive index out of tolerance"
	KindFiberLength    = "Fiber length inconsistency"
	KindReferenceIndex = "Refractive index mismatch"
	KindReferencePulse = "Pulse width mismatch"
	KindSpacing        = "Measurement interval below minimum"
	KindDuplicate      = "Duplicate curves"
	KindNaming         = "Incorrect curve naming"
	KindSpliceLoss     = "Splice out of spec"
)

// Default thresholds.
const (
	defaultIndexTol     = 0.0001
	defaultLengthTolKm  = 0.030
	defaultMinInterval  = 90 * time.Second
	defaultSpliceLossDb = 0.3
	nominalIndex1310    = 1.4675
	nominalIndex1550    = 1.4680
)

// Rule is one independent check.
type Rule interface {
	// Name identifies the rule in logs and metrics.
	Name() string
	// Check returns the anomalies found in ds. It must not modify ds.
	Check(ds model.Dataset) []model.Anomaly
}

// Config carries the run-level thresholds and reference values.
type Config struct {
	// BandIndex maps a normalized band to its nominal refractive index.
	BandIndex         map[string]float64
	IndexTolerance    float64
	LengthToleranceKm float64
	// ReferenceIndex and ReferencePulseWidth disable their check when empty.
	ReferenceIndex      string
	ReferencePulseWidth string
	MinInterval         time.Duration
	SpliceLossDb        float64
}

// DefaultConfig returns the standard thresholds with no reference values.
func DefaultConfig() Config {
	return Config{
		BandIndex: map[string]float64{
			"1310": nominalIndex1310,
			"1550": nominalIndex1550,
		},
		IndexTolerance:    defaultIndexTol,
		LengthToleranceKm: defaultLengthTolKm,
		MinInterval:       defaultMinInterval,
		SpliceLossDb:      defaultSpliceLossDb,
	}
}

// Standard returns the seven rules in report order.
func Standard(cfg Config) []Rule {
	return []Rule{
		BandIndex(cfg.BandIndex, cfg.IndexTolerance),
		FiberLength(cfg.LengthToleranceKm),
		Reference(cfg.ReferenceIndex, cfg.ReferencePulseWidth),
		Spacing(cfg.MinInterval),
		Duplicates(),
		Naming(),
		SpliceLoss(cfg.SpliceLossDb),
	}
}

// Apply runs one rule and merges its findings into l.
func Apply(l ledger.Ledger, r Rule, ds model.Dataset) ledger.Ledger {
	return l.Merge(r.Check(ds))
}

// Observer is told how long each rule took and how many anomalies it found.
type Observer func(ctx context.Context, rule string, took time.Duration, found int)

// Pipeline runs rules in a fixed order.
type Pipeline struct {
	rules    []Rule
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver installs a per-rule callback.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewPipeline builds a pipeline over rules.
func NewPipeline(rules []Rule, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:    rules,
		observer: func(context.Context, string, time.Duration, int) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rules returns the rules in run order.
func (p *Pipeline) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Run folds every rule over ds, starting from an empty ledger.
func (p *Pipeline) Run(ctx context.Context, ds model.Dataset) ledger.Ledger {
	l := ledger.New()
	for _, r := range p.rules {
		start := time.Now()
		found := r.Check(ds)
		p.observer(ctx, r.Name(), time.Since(start), len(found))
		l = l.Merge(found)
	}
	return l
}

// Run is shorthand for a pipeline without observer.
func Run(ds model.Dataset, rules ...Rule) ledger.Ledger {
	return NewPipeline(rules).Run(context.Background(), ds)
}
