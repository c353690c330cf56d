// Package config defines run configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and ARGOS_ env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/argos/internal/domain/rules"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DecoderCommand is the trace decoder command line; the trace name is appended.
	DecoderCommand string `koanf:"decoder_command"`

	// DecoderFallback is tried when DecoderCommand's executable is not found.
	DecoderFallback string `koanf:"decoder_fallback"`

	// DecoderWorkers bounds concurrent decodes.
	DecoderWorkers int `koanf:"decoder_workers"`

	// DecodeTimeout bounds one decode; zero disables the limit.
	DecodeTimeout time.Duration `koanf:"decode_timeout"`

	// ReferenceIndex and ReferencePulseWidth are compared against every
	// trace. Leaving one empty disables its check.
	ReferenceIndex      string `koanf:"reference_index"`
	ReferencePulseWidth string `koanf:"reference_pulse_width"`

	// BandIndex maps a band to its nominal refractive index. File only.
	BandIndex map[string]float64 `koanf:"band_index"`

	// IndexTolerance is the allowed deviation from the nominal index.
	IndexTolerance float64 `koanf:"index_tolerance"`

	// LengthToleranceM is the allowed total-length spread per cable, in meters.
	LengthToleranceM float64 `koanf:"length_tolerance_m"`

	// MinInterval is the shortest allowed gap between measurements of one fiber.
	MinInterval time.Duration `koanf:"min_interval"`

	// SpliceLossDb is the splice attenuation at or above which a splice fails.
	SpliceLossDb float64 `koanf:"splice_loss_db"`

	// ReportPath is where the workbook is written.
	ReportPath string `koanf:"report_path"`

	// ReportAutofit fits column widths to their content.
	ReportAutofit bool `koanf:"report_autofit"`

	// MetricsTextfile, when set, receives the run metrics in textfile format.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config with defaults.
func New() *Config {
	d := rules.DefaultConfig()
	return &Config{
		LogLevel:         "info",
		DecoderCommand:   "pyotdr",
		DecoderFallback:  "python3 -m pyotdr",
		DecoderWorkers:   runtime.NumCPU(),
		DecodeTimeout:    2 * time.Minute,
		BandIndex:        d.BandIndex,
		IndexTolerance:   d.IndexTolerance,
		LengthToleranceM: d.LengthToleranceKm * 1000,
		MinInterval:      d.MinInterval,
		SpliceLossDb:     d.SpliceLossDb,
		ReportPath:       "argos-report.xlsx",
		ReportAutofit:    true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DecoderCommand) == "":
		return fmt.Errorf("%w: decoder_command must not be empty", ErrInvalidConfig)
	case c.DecoderWorkers <= 0:
		return fmt.Errorf("%w: decoder_workers must be positive, got %d", ErrInvalidConfig, c.DecoderWorkers)
	case c.DecodeTimeout < 0:
		return fmt.Errorf("%w: decode_timeout must not be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.ReportPath) == "":
		return fmt.Errorf("%w: report_path must not be empty", ErrInvalidConfig)
	case c.IndexTolerance < 0:
		return fmt.Errorf("%w: index_tolerance must not be negative", ErrInvalidConfig)
	case c.LengthToleranceM < 0:
		return fmt.Errorf("%w: length_tolerance_m must not be negative", ErrInvalidConfig)
	case c.MinInterval < 0:
		return fmt.Errorf("%w: min_interval must not be negative", ErrInvalidConfig)
	case c.SpliceLossDb < 0:
		return fmt.Errorf("%w: splice_loss_db must not be negative", ErrInvalidConfig)
	}
	for band, n := range c.BandIndex {
		if n <= 0 {
			return fmt.Errorf("%w: band_index %s must be positive", ErrInvalidConfig, band)
		}
	}
	return nil
}

// Rules converts the thresholds into the rule set's configuration.
func (c *Config) Rules() rules.Config {
	bands := make(map[string]float64, len(c.BandIndex))
	for b, n := range c.BandIndex {
		bands[b] = n
	}
	return rules.Config{
		BandIndex:           bands,
		IndexTolerance:      c.IndexTolerance,
		LengthToleranceKm:   c.LengthToleranceM / 1000,
		ReferenceIndex:      c.ReferenceIndex,
		ReferencePulseWidth: c.ReferencePulseWidth,
		MinInterval:         c.MinInterval,
		SpliceLossDb:        c.SpliceLossDb,
	}
}
