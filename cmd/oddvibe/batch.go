package main

import (
	"context"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/pkg/config"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
)

const (
	seedsFlag    = "seeds"
	parallelFlag = "parallel"
)

// batchRun is one seed of a batch.
type batchRun struct {
	ID         string  `json:"id" yaml:"id"`
	Seed       int64   `json:"seed" yaml:"seed"`
	Suspicious []int   `json:"suspicious" yaml:"suspicious"`
	Skipped    int     `json:"skipped" yaml:"skipped"`
	Scale      float64 `json:"scale" yaml:"scale"`
	DurationMs int64   `json:"duration_ms" yaml:"duration_ms"`

	weights []float64
}

// batchResult aggregates the runs of a batch. Flagged[i] is the share of
// runs that listed row i among the top least trusted rows.
type batchResult struct {
	Rows        int         `json:"rows" yaml:"rows"`
	Iterations  int         `json:"iterations" yaml:"iterations"`
	Runs        []*batchRun `json:"runs" yaml:"runs"`
	MeanWeights []float64   `json:"mean_weights" yaml:"mean_weights"`
	Flagged     []float64   `json:"flagged" yaml:"flagged"`
	Consensus   []int       `json:"consensus" yaml:"consensus"`
}

func newBatchCmd() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Runs the booster under several seeds in parallel and aggregates the weights",
		Flags: runFlags(append(dataFlags(),
			&cli.IntFlag{
				Name:  seedsFlag,
				Usage: "Number of seeds, counting up from --seed",
				Value: 8,
			},
			&cli.IntFlag{
				Name:  parallelFlag,
				Usage: "Maximum concurrent runs (optional, default: number of CPUs)",
				Value: runtime.NumCPU(),
			},
			topFlagWithDefault(10),
		)...),
		Action: cmdBatch,
	}
}

func cmdBatch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	X, y, err := readData(cmd)
	if err != nil {
		return err
	}

	res, err := runBatch(ctx, cfg, X, y, cmd.Int(seedsFlag), cmd.Int(parallelFlag), cmd.Int(topFlag))
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

// runBatch fits one booster per seed, cfg.Seed through cfg.Seed+seeds-1,
// at most parallel at a time. The result does not depend on parallel.
func runBatch(ctx context.Context, cfg *config.Config, X mat.Matrix, y mat.Vector, seeds, parallel, top int) (*batchResult, error) {
	if seeds < 1 {
		return nil, errors.NewValueError("runBatch", "at least one seed is required")
	}
	if parallel < 1 {
		parallel = 1
	}
	logger := log.GetLoggerWithName("batch")

	runs := make([]*batchRun, seeds)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for k := range runs {
		runCfg := *cfg
		runCfg.Seed = cfg.Seed + int64(k)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := runCfg.NewBooster()
			if err != nil {
				return err
			}
			run, err := fitRun(b, X, y, runCfg.Iterations, top)
			if err != nil {
				return errors.Wrapf(err, "seed %d", runCfg.Seed)
			}
			logger.Debug("Batch run completed",
				log.SeedKey, run.Seed,
				log.DurationMsKey, run.DurationMs,
				log.RunIDKey, run.ID,
			)
			runs[k] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := len(runs[0].weights)
	res := &batchResult{
		Rows:        n,
		Iterations:  cfg.Iterations,
		Runs:        runs,
		MeanWeights: make([]float64, n),
		Flagged:     make([]float64, n),
	}
	for _, run := range runs {
		floats.Add(res.MeanWeights, run.weights)
		for _, i := range run.Suspicious {
			res.Flagged[i]++
		}
	}
	floats.Scale(1/float64(seeds), res.MeanWeights)
	floats.Scale(1/float64(seeds), res.Flagged)
	res.Consensus = consensus(res.Flagged)
	return res, nil
}

func fitRun(b *boost.Booster, X mat.Matrix, y mat.Vector, iterations, top int) (*batchRun, error) {
	report, err := b.Fit(X, y, iterations)
	if err != nil {
		return nil, err
	}
	return &batchRun{
		ID:         uuid.NewString(),
		Seed:       b.Seed(),
		Suspicious: report.MostSuspicious(top),
		Skipped:    report.Skipped,
		Scale:      report.Scale,
		DurationMs: report.Duration.Milliseconds(),
		weights:    report.Weights,
	}, nil
}

// consensus returns the rows flagged by more than half of the runs, most
// often flagged first.
func consensus(flagged []float64) []int {
	rows := []int{}
	for i, f := range flagged {
		if f > 0.5 {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return flagged[rows[a]] > flagged[rows[b]]
	})
	return rows
}
