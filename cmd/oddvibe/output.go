package main

import (
	"encoding/json"
	"io"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/pkg/errors"
)

// weightsResult is what the weights command prints.
type weightsResult struct {
	Rows        int       `json:"rows" yaml:"rows"`
	Iterations  int       `json:"iterations" yaml:"iterations"`
	Skipped     int       `json:"skipped" yaml:"skipped"`
	Center      float64   `json:"center" yaml:"center"`
	Scale       float64   `json:"scale" yaml:"scale"`
	Suspicious  []int     `json:"suspicious" yaml:"suspicious"`
	Weights     []float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	Output      string    `json:"output,omitempty" yaml:"output,omitempty"`
	DurationMs  int64     `json:"duration_ms" yaml:"duration_ms"`
	Frequencies []float64 `json:"selection_frequencies,omitempty" yaml:"selection_frequencies,omitempty"`
}

func newWeightsResult(report *boost.Report, top int) *weightsResult {
	return &weightsResult{
		Rows:        len(report.Weights),
		Iterations:  report.Iterations,
		Skipped:     report.Skipped,
		Center:      report.Center,
		Scale:       report.Scale,
		Suspicious:  report.MostSuspicious(top),
		DurationMs:  report.Duration.Milliseconds(),
		Frequencies: report.SelectionFrequencies(),
	}
}

// printResult writes v to the command's writer in the --format encoding.
func printResult(cmd *cli.Command, v any) error {
	return encode(cmd.Root().Writer, cmd.String(formatFlag), v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "failed to encode json")
		}
		return nil
	default:
		return errors.Newf("unsupported output format: %s", format)
	}
}
