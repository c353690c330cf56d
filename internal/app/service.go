// Package service runs one validation batch: decode, normalize, classify,
// apply the rule pipeline and write the report.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/argos/internal/adapters/decoder"
	"github.com/okian/argos/internal/adapters/report"
	"github.com/okian/argos/internal/config"
	"github.com/okian/argos/internal/domain/classify"
	"github.com/okian/argos/internal/domain/ledger"
	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/internal/domain/normalize"
	"github.com/okian/argos/internal/domain/rules"
	"github.com/okian/argos/pkg/logger"
	"github.com/okian/argos/pkg/metrics"
)

// Service validates batches of OTDR traces.
type Service struct {
	decoder    decoder.Decoder
	workers    int
	classifier *classify.Classifier
	rules      []rules.Rule

	writer          *report.Writer
	reportPath      string
	metricsTextfile string

	newID  func() string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDecoder sets the trace decoder.
func WithDecoder(d decoder.Decoder) Option {
	return func(s *Service) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithWorkers sets how many traces are decoded at once.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClassifier sets the event classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithRules sets the rules run over each batch, in order.
func WithRules(r ...rules.Rule) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithReport sets the workbook writer and its target path. An empty path
// skips writing the workbook.
func WithReport(w *report.Writer, path string) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
		s.reportPath = path
	}
}

// WithMetricsTextfile exports the run metrics to path after each run.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// WithRunID overrides how run ids are generated.
func WithRunID(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with the standard rules and default thresholds.
func New(opts ...Option) *Service {
	s := &Service{
		decoder:    decoder.Auto{Trace: decoder.NewExec()},
		workers:    runtime.NumCPU(),
		classifier: classify.New(),
		rules:      rules.Standard(rules.DefaultConfig()),
		writer:     report.NewWriter(),
		newID:      uuid.NewString,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds a Service from loaded configuration. A nil log
// disables logging. opts are applied last and win.
func FromConfig(cfg *config.Config, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	base := []Option{
		WithLogger(log),
		WithDecoder(decoder.Auto{Trace: decoder.NewExec(
			decoder.WithCommandLine(cfg.DecoderCommand),
			decoder.WithFallback(strings.Fields(cfg.DecoderFallback)...),
			decoder.WithTimeout(cfg.DecodeTimeout),
			decoder.WithLogger(log.Named("decoder")),
		)}),
		WithWorkers(cfg.DecoderWorkers),
		WithRules(rules.Standard(cfg.Rules())...),
		WithReport(report.NewWriter(
			report.WithAutofit(cfg.ReportAutofit),
			report.WithLogger(log.Named("report")),
		), cfg.ReportPath),
		WithMetricsTextfile(cfg.MetricsTextfile),
	}
	return New(append(base, opts...)...)
}

// Rules returns the rules the service runs, in order.
func (s *Service) Rules() []rules.Rule {
	return append([]rules.Rule(nil), s.rules...)
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Inputs   int
	Dataset  model.Dataset
	Ledger   ledger.Ledger
	Failures []decoder.Failure
	ByRule   []report.RuleCount
	Report   string
	Took     time.Duration
}

// HasAnomalies reports whether any rule fired.
func (r Result) HasAnomalies() bool { return r.Ledger.Len() > 0 }

// Summary condenses the result for the console.
func (r Result) Summary() report.Summary {
	s := report.Summary{
		RunID:     r.RunID,
		Inputs:    r.Inputs,
		Decoded:   r.Inputs - len(r.Failures),
		Records:   len(r.Dataset.Records),
		Events:    len(r.Dataset.Events),
		Anomalies: r.Ledger.Len(),
		ByKind:    r.Ledger.Counts(),
		ByRule:    r.ByRule,
		Report:    r.Report,
	}
	for _, f := range r.Failures {
		s.Warnings = append(s.Warnings, f.Error())
	}
	return s
}

// Run validates the traces at paths. Undecodable traces become warnings on
// the result; the run fails only when nothing could be decoded, when the
// context is canceled or when the report cannot be written.
func (s *Service) Run(ctx context.Context, paths []string) (Result, error) {
	if len(paths) == 0 {
		return Result{}, ErrNoInput
	}
	start := time.Now()
	res := Result{RunID: s.newID(), Inputs: len(paths)}
	log := s.logger.With(logger.String("run_id", res.RunID))
	log.Info(ctx, "run started", logger.Int("inputs", len(paths)), logger.Int("rules", len(s.rules)))

	unique, dups := uniquePaths(paths)
	pool := decoder.NewPool(s.decoder, decoder.WithWorkers(s.workers), decoder.WithPoolLogger(log))
	batch, err := pool.DecodeAll(ctx, unique)
	if err != nil {
		return Result{}, fmt.Errorf("decode: %w", err)
	}
	res.Failures = append(batch.Failures, dups...)
	for _, d := range dups {
		log.Warn(ctx, "trace skipped", logger.String("path", d.Path), logger.Error(d.Err))
	}
	if len(batch.Traces) == 0 {
		errs := make([]error, 0, len(res.Failures))
		for _, f := range res.Failures {
			errs = append(errs, f)
		}
		return Result{}, fmt.Errorf("%w: %w", ErrNothingDecoded, errors.Join(errs...))
	}

	res.Dataset = s.classifier.Dataset(normalize.Dataset(batch.Traces))

	pipeline := rules.NewPipeline(s.rules, rules.WithObserver(
		func(ctx context.Context, name string, took time.Duration, found int) {
			metrics.RecordRuleDuration(name, took)
			res.ByRule = append(res.ByRule, report.RuleCount{Rule: name, Found: found})
			log.Debug(ctx, "rule evaluated",
				logger.String("rule", name),
				logger.Duration("took", took),
				logger.Int("found", found))
		},
	))
	res.Ledger = pipeline.Run(ctx, res.Dataset)
	for _, kc := range res.Ledger.Counts() {
		metrics.RecordAnomalies(kc.Kind, kc.Count)
	}

	if s.reportPath != "" {
		if err := s.writer.Write(ctx, s.reportPath, report.Build(res.Dataset, res.Ledger)); err != nil {
			return Result{}, err
		}
		res.Report = s.reportPath
	}

	res.Took = time.Since(start)
	metrics.RecordRun(res.Took, len(res.Dataset.Records), len(res.Dataset.Events), time.Now())
	if s.metricsTextfile != "" {
		if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
			log.Warn(ctx, "metrics not exported", logger.Error(err))
		}
	}

	log.Info(ctx, "run finished",
		logger.Int("records", len(res.Dataset.Records)),
		logger.Int("events", len(res.Dataset.Events)),
		logger.Int("anomalies", res.Ledger.Len()),
		logger.Int("failures", len(res.Failures)),
		logger.Duration("took", res.Took))
	return res, nil
}

// uniquePaths keeps the first path of each trace name. Later ones are
// returned as failures so every record in a run has a distinct FileID.
func uniquePaths(paths []string) ([]string, []decoder.Failure) {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	var dups []decoder.Failure
	for _, p := range paths {
		name := decoder.TraceName(p)
		if _, dup := seen[name]; dup {
			dups = append(dups, decoder.Failure{
				Path: p,
				Err:  fmt.Errorf("%w: %s", ErrDuplicateTrace, name),
			})
			continue
		}
		seen[name] = struct{}{}
		out = append(out, p)
	}
	return out, dups
}
