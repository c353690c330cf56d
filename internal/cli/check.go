package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/argos/internal/adapters/report"
	service "github.com/okian/argos/internal/app"
	"github.com/okian/argos/internal/config"
	"github.com/okian/argos/pkg/logger"
)

// CheckOptions holds the check command flags. Only flags set on the
// command line override the loaded configuration.
type CheckOptions struct {
	RefIndex      string
	RefPulse      string
	Out           string
	ToleranceM    float64
	MinInterval   time.Duration
	SpliceLoss    float64
	Workers       int
	Decoder       string
	Metrics       string
	Decoded       bool
	FailOnAnomaly bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <trace|dir>...",
		Short: "Validate a batch of OTDR traces",
		Long: `Decode every trace, run the anomaly rules over the batch and write the
Parameters, Events and OutOfSpec sheets to the report workbook.

Directories are expanded to the .sor files they contain. With --decoded,
decoder dumps (*-dump.json) are read directly as well.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.RefIndex, "ref-index", "", "reference refractive index every trace must match; unset skips the check")
	f.StringVar(&opts.RefPulse, "ref-pulse", "", "reference pulse width every trace must match; unset skips the check")
	f.StringVarP(&opts.Out, "out", "o", "", "report workbook path")
	f.Float64Var(&opts.ToleranceM, "tolerance-m", 0, "allowed fiber length spread per cable, in meters")
	f.DurationVar(&opts.MinInterval, "min-interval", 0, "shortest allowed gap between measurements of one fiber")
	f.Float64Var(&opts.SpliceLoss, "splice-loss", 0, "splice attenuation in dB at or above which a splice fails")
	f.IntVar(&opts.Workers, "workers", 0, "concurrent decodes")
	f.StringVar(&opts.Decoder, "decoder", "", "decoder command line")
	f.StringVar(&opts.Metrics, "metrics-textfile", "", "export run metrics to this file")
	f.BoolVar(&opts.Decoded, "decoded", false, "also read decoder dumps from directories")
	f.BoolVar(&opts.FailOnAnomaly, "fail-on-anomaly", false, "exit with code 1 when anomalies are found")

	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, opts *CheckOptions, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, rootOpts)
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	paths, err := service.Expand(args, opts.Decoded)
	if err != nil {
		return WrapExitError(ExitCommandError, "no input", err)
	}

	log := logger.Get()
	log.Debug(ctx, "inputs expanded", logger.Int("files", len(paths)))

	res, err := service.FromConfig(cfg, log.Named("service")).Run(ctx, paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "check failed", err)
	}

	if err := report.WriteSummary(cmd.OutOrStdout(), rootOpts.Format, res.Summary()); err != nil {
		return WrapExitError(ExitCommandError, "failed to write summary", err)
	}

	if opts.FailOnAnomaly && res.HasAnomalies() {
		return NewExitError(ExitAnomalies, fmt.Sprintf("%d anomalies found", res.Ledger.Len()))
	}
	return nil
}

// apply copies the flags set on the command line into cfg.
func (o *CheckOptions) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}
	set("ref-index", func() { cfg.ReferenceIndex = o.RefIndex })
	set("ref-pulse", func() { cfg.ReferencePulseWidth = o.RefPulse })
	set("out", func() { cfg.ReportPath = o.Out })
	set("tolerance-m", func() { cfg.LengthToleranceM = o.ToleranceM })
	set("min-interval", func() { cfg.MinInterval = o.MinInterval })
	set("splice-loss", func() { cfg.SpliceLossDb = o.SpliceLoss })
	set("workers", func() { cfg.DecoderWorkers = o.Workers })
	set("decoder", func() { cfg.DecoderCommand = o.Decoder })
	set("metrics-textfile", func() { cfg.MetricsTextfile = o.Metrics })
}
