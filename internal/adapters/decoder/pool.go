package decoder

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/argos/internal/domain/model"
	"github.com/okian/argos/pkg/logger"
	"github.com/okian/argos/pkg/metrics"
)

// Failure is a trace that could not be decoded.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }

// Batch is the outcome of decoding a set of traces. Traces keep input order.
type Batch struct {
	Traces   []model.RawTrace
	Failures []Failure
}

// Pool decodes many traces concurrently with a bounded number of workers.
type Pool struct {
	decoder Decoder
	workers int
	logger  logger.Logger
}

// NewPool creates a pool over d. It defaults to one worker per CPU.
func NewPool(d Decoder, opts ...PoolOption) *Pool {
	p := &Pool{
		decoder: d,
		workers: runtime.NumCPU(),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type outcome struct {
	trace model.RawTrace
	err   error
}

// DecodeAll decodes every path. A failing trace is recorded in the batch and
// never stops the others. The returned error is only the context's, when it
// was canceled before all decodes ran.
func (p *Pool) DecodeAll(ctx context.Context, paths []string) (Batch, error) {
	results := make([]outcome, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = outcome{err: err}
				return nil
			}
			start := time.Now()
			trace, err := p.decoder.Decode(ctx, path)
			results[i] = outcome{trace: trace, err: err}
			if err != nil {
				metrics.RecordDecodeFailure()
				p.logger.Warn(ctx, "trace not decoded", logger.String("path", path), logger.Error(err))
				return nil
			}
			metrics.RecordTraceDecoded(time.Since(start))
			p.logger.Debug(ctx, "trace decoded",
				logger.String("path", path),
				logger.Duration("took", time.Since(start)),
				logger.Int("events", len(trace.Events)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	var b Batch
	for i, r := range results {
		if r.err != nil {
			b.Failures = append(b.Failures, Failure{Path: paths[i], Err: r.err})
			continue
		}
		b.Traces = append(b.Traces, r.trace)
	}
	return b, nil
}
