package main

import (
	"context"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/pkg/config"
)

func newWeightsCmd() *cli.Command {
	return &cli.Command{
		Name:  "weights",
		Usage: "Computes one outlier weight per row",
		Flags: runFlags(append(dataFlags(),
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Write weights to a .npy, .csv or .json file instead of printing them (optional)",
				TakesFile: true,
			},
			topFlagWithDefault(10),
		)...),
		Action: cmdWeights,
	}
}

func cmdWeights(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	X, y, err := readData(cmd)
	if err != nil {
		return err
	}

	report, err := fitReport(cfg, X, y)
	if err != nil {
		return err
	}

	res := newWeightsResult(report, cmd.Int(topFlag))
	if out := cmd.String(outFlag); out != "" {
		if err := writeWeights(out, report.Weights); err != nil {
			return err
		}
		res.Output = out
	} else {
		res.Weights = report.Weights
	}
	return printResult(cmd, res)
}

func readData(cmd *cli.Command) (*mat.Dense, *mat.VecDense, error) {
	X, err := readFeatures(cmd.String(featuresFlag))
	if err != nil {
		return nil, nil, err
	}
	y, err := readTarget(cmd.String(targetFlag))
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

func fitReport(cfg *config.Config, X mat.Matrix, y mat.Vector) (*boost.Report, error) {
	b, err := cfg.NewBooster()
	if err != nil {
		return nil, err
	}
	return b.Fit(X, y, cfg.Iterations)
}
