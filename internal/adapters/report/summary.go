package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/argos/internal/domain/ledger"
)

// Summary formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RuleCount is the number of anomalies one rule reported.
type RuleCount struct {
	Rule  string `json:"rule"`
	Found int    `json:"found"`
}

// Summary describes one run for the console.
type Summary struct {
	RunID     string             `json:"run_id"`
	Inputs    int                `json:"inputs"`
	Decoded   int                `json:"decoded"`
	Records   int                `json:"records"`
	Events    int                `json:"events"`
	Anomalies int                `json:"anomalies"`
	ByKind    []ledger.KindCount `json:"by_kind"`
	ByRule    []RuleCount        `json:"by_rule"`
	Warnings  []string           `json:"warnings"`
	Report    string             `json:"report,omitempty"`
}

// WriteSummary renders s in format to w.
func WriteSummary(w io.Writer, format string, s Summary) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatText, "":
		return writeText(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

func writeJSON(w io.Writer, s Summary) error {
	if s.ByKind == nil {
		s.ByKind = []ledger.KindCount{}
	}
	if s.ByRule == nil {
		s.ByRule = []RuleCount{}
	}
	if s.Warnings == nil {
		s.Warnings = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func writeText(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "traces\t%d decoded of %d\n", s.Decoded, s.Inputs)
	fmt.Fprintf(tw, "records\t%d\n", s.Records)
	fmt.Fprintf(tw, "events\t%d\n", s.Events)
	fmt.Fprintf(tw, "anomalies\t%d\n", s.Anomalies)
	if s.Report != "" {
		fmt.Fprintf(tw, "report\t%s\n", s.Report)
	}
	if len(s.ByRule) > 0 {
		fmt.Fprintln(tw, "\nrule\tfound")
		for _, r := range s.ByRule {
			fmt.Fprintf(tw, "%s\t%d\n", r.Rule, r.Found)
		}
	}
	if len(s.ByKind) > 0 {
		fmt.Fprintln(tw, "\nkind\tcount")
		for _, k := range s.ByKind {
			fmt.Fprintf(tw, "%s\t%d\n", k.Kind, k.Count)
		}
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintln(tw)
		for _, warn := range s.Warnings {
			fmt.Fprintf(tw, "warning\t%s\n", warn)
		}
	}
	return tw.Flush()
}
