package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/ezoic/oddvibe/datasets"
)

const rowsFlag = "rows"

type demoResult struct {
	Rows         int          `json:"rows" yaml:"rows"`
	Coefficients []float64    `json:"true_coefficients" yaml:"true_coefficients"`
	Intercept    float64      `json:"true_intercept" yaml:"true_intercept"`
	Planted      []int        `json:"planted_outliers" yaml:"planted_outliers"`
	Suspicious   []int        `json:"suspicious" yaml:"suspicious"`
	Recall       float64      `json:"recall" yaml:"recall"`
	Iterations   int          `json:"iterations" yaml:"iterations"`
	Skipped      int          `json:"skipped" yaml:"skipped"`
	Scale        float64      `json:"scale" yaml:"scale"`
	DurationMs   int64        `json:"duration_ms" yaml:"duration_ms"`
	Refit        *refitResult `json:"refit" yaml:"refit"`
}

func newDemoCmd() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Plants outliers in synthetic linear data and checks they get the smallest weights",
		Flags: runFlags(
			&cli.IntFlag{
				Name:  rowsFlag,
				Usage: "Number of generated rows (optional, overrides config)",
			},
		),
		Action: cmdDemo,
	}
}

func cmdDemo(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gen := datasets.DefaultCorruptedLinear()
	if cfg.Data != nil {
		gen = *cfg.Data
	}
	if cmd.IsSet(rowsFlag) {
		gen.Rows = cmd.Int(rowsFlag)
	}
	sample, err := gen.Generate()
	if err != nil {
		return err
	}

	report, err := fitReport(cfg, sample.X, sample.Y)
	if err != nil {
		return err
	}

	res := &demoResult{
		Rows:         sample.Y.Len(),
		Coefficients: gen.Coefficients,
		Intercept:    gen.Intercept,
		Planted:      sample.Outliers,
		Suspicious:   report.MostSuspicious(len(sample.Outliers)),
		Iterations:   report.Iterations,
		Skipped:      report.Skipped,
		Scale:        report.Scale,
		DurationMs:   report.Duration.Milliseconds(),
	}
	if len(sample.Outliers) > 0 {
		hits := 0
		for _, i := range res.Suspicious {
			if sample.IsOutlier(i) {
				hits++
			}
		}
		res.Recall = float64(hits) / float64(len(sample.Outliers))
	}

	var mask []float64
	if inliers := sample.Inliers(); len(inliers) > 0 {
		mask = make([]float64, res.Rows)
		for _, i := range inliers {
			mask[i] = 1
		}
	}
	if res.Refit, err = compareFits(sample.X, sample.Y, report.Weights, mask); err != nil {
		return err
	}
	res.Refit.Suspicious = res.Suspicious

	return printResult(cmd, res)
}
