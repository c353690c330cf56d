package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/argos/internal/adapters/report"
	"github.com/okian/argos/internal/config"
	"github.com/okian/argos/internal/domain/rules"
)

// RuleInfo describes one rule and the setting that drives it.
type RuleInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Threshold string `json:"threshold"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rules",
		Short:         "List the rules and their active thresholds",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			if err := writeRules(cmd.OutOrStdout(), rootOpts.Format, describeRules(cfg)); err != nil {
				return WrapExitError(ExitCommandError, "failed to write rules", err)
			}
			return nil
		},
	}
}

// describeRules lists the standard rules in pipeline order.
func describeRules(cfg *config.Config) []RuleInfo {
	rc := cfg.Rules()
	bands := make([]string, 0, len(rc.BandIndex))
	for _, b := range slices.Sorted(maps.Keys(rc.BandIndex)) {
		bands = append(bands, fmt.Sprintf("%s=%g", b, rc.BandIndex[b]))
	}
	return []RuleInfo{
		{"band_index", rules.KindBandIndex, fmt.Sprintf("%v ±%g", bands, rc.IndexTolerance)},
		{"fiber_length", rules.KindFiberLength, fmt.Sprintf("%g m", cfg.LengthToleranceM)},
		{"reference", rules.KindReferenceIndex + ", " + rules.KindReferencePulse,
			fmt.Sprintf("index=%s pulse=%s", orOff(rc.ReferenceIndex), orOff(rc.ReferencePulseWidth))},
		{"spacing", rules.KindSpacing, rc.MinInterval.String()},
		{"duplicates", rules.KindDuplicate, "same timestamp"},
		{"naming", rules.KindNaming, "embedded name vs file name"},
		{"splice_loss", rules.KindSpliceLoss, fmt.Sprintf(">= %g dB", rc.SpliceLossDb)},
	}
}

func orOff(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

func writeRules(w io.Writer, format string, infos []RuleInfo) error {
	if format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "rule\tkind\tthreshold")
	for _, r := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Kind, r.Threshold)
	}
	return tw.Flush()
}
