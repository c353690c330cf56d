package decoder

import (
	"strings"
	"time"

	"github.com/okian/argos/pkg/logger"
)

// Option applies a configuration option to the Exec decoder.
type Option func(*Exec)

// WithCommand sets the decoder command line. The trace filename is appended
// as the last argument.
func WithCommand(argv ...string) Option {
	return func(e *Exec) {
		if len(argv) > 0 {
			e.command = argv
		}
	}
}

// WithCommandLine is WithCommand for a whitespace separated command line.
func WithCommandLine(line string) Option {
	return WithCommand(strings.Fields(line)...)
}

// WithFallback sets the command tried when the primary executable is not
// found. An empty fallback disables it.
func WithFallback(argv ...string) Option {
	return func(e *Exec) {
		e.fallback = argv
	}
}

// WithTimeout bounds each decode. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Exec) {
		if d >= 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the decoder.
func WithLogger(l logger.Logger) Option {
	return func(e *Exec) {
		if l != nil {
			e.logger = l
		}
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkers sets how many decodes run at once.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets a custom logger for the pool.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
