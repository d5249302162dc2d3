// Package boost implements the robust boosting engine that scores every row
// of a regression dataset by how well it agrees with the rest.
//
// Each round fits a weighted decision stump to the current residuals, folds
// a shrunken copy of it into the ensemble prediction and then reweights the
// rows from their standardized residuals with a bounded-influence function.
// The scale used to standardize residuals never falls below a fraction of
// the scale around the baseline, so a long run that fits the clean rows
// closely does not start treating their noise as outlying.
// Rows the ensemble keeps failing to explain end up with small weights:
//
//	b := boost.NewBooster(1480561820)
//	weights, err := b.FindOutlierWeights(X, y, 5000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The result depends only on the seed, the options and the inputs. A Booster
// holds no mutable state and may be shared between goroutines.
package boost

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/core/dataset"
	"github.com/ezoic/oddvibe/core/model"
	"github.com/ezoic/oddvibe/core/random"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
	"github.com/ezoic/oddvibe/robust"
	"github.com/ezoic/oddvibe/sklearn/tree"
)

// Booster computes outlier weights. Create one with NewBooster.
type Booster struct {
	seed int64
	opts options
}

// NewBooster creates a booster bound to seed.
//
// Every call builds its own random source from the seed, so repeated calls
// with the same inputs return bit-identical weights.
//
// Example:
//
//	b := boost.NewBooster(42, boost.WithPolicy(robust.Tukey()))
//	report, err := b.Fit(X, y, 1000)
func NewBooster(seed int64, opts ...Option) *Booster {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Booster{seed: seed, opts: o}
}

// Seed returns the seed the booster was created with.
func (b *Booster) Seed() int64 { return b.seed }

// FindOutlierWeights runs iterations boosting rounds over X and y and returns
// one weight per row. Weights are non-negative and sum to 1; rows that look
// like outliers get weights well below 1/n.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Target vector of length n_samples
//   - iterations: Number of boosting rounds, at least 1
//
// Errors:
//   - ErrEmptyData: if X has no rows or no columns
//   - ErrDimensionMismatch: if y.Len() differs from the row count of X
//   - ErrInvalidIterationCount: if iterations <= 0
//   - ErrNonFinite: if any feature or target value is NaN or infinite
//   - ErrInvalidParameter: if an option is out of range
//
// Neither X nor y is modified.
func (b *Booster) FindOutlierWeights(X mat.Matrix, y mat.Vector, iterations int) ([]float64, error) {
	report, err := b.Fit(X, y, iterations)
	if err != nil {
		return nil, err
	}
	return report.Weights, nil
}

// Fit is FindOutlierWeights returning the full Report.
func (b *Booster) Fit(X mat.Matrix, y mat.Vector, iterations int) (report *Report, err error) {
	const op = "Booster.Fit"
	defer errors.Recover(&err, op)

	startTime := time.Now()
	logger := b.opts.runLogger()

	if err := b.opts.validate(op); err != nil {
		return nil, err
	}
	ds, err := dataset.New(X, y)
	if err != nil {
		return nil, err
	}
	if iterations <= 0 {
		return nil, errors.NewInvalidIterationCountError(op, iterations)
	}

	n, d := ds.Dims()
	logger.Info("Outlier weighting started",
		log.OperationKey, log.OperationWeights,
		log.PhaseKey, log.PhaseBoosting,
		log.SeedKey, b.seed,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.IterationsKey, iterations,
	)

	if n == 1 {
		return &Report{Weights: []float64{1}, Duration: time.Since(startTime)}, nil
	}

	r := newRun(ds, b.opts, b.seed)
	report, err = r.boost(iterations, logger)
	if err != nil {
		logger.Error("Outlier weighting failed", log.ErrorKey, err)
		return nil, err
	}
	report.Duration = time.Since(startTime)

	logger.Info("Outlier weighting completed",
		log.PhaseKey, log.PhaseConverged,
		log.IterationsKey, report.Iterations,
		log.SkippedKey, report.Skipped,
		log.ScaleKey, report.Scale,
		log.DurationMsKey, report.Duration.Milliseconds(),
	)
	return report, nil
}

// run is the per-call arena: every buffer a Fit needs is allocated here
// once and reused across rounds.
type run struct {
	opts    options
	ds      *dataset.Dataset
	src     *random.Source
	state   *model.StateManager
	tracker *robust.Tracker
	fitter  *tree.StumpFitter

	weights    []float64
	fitWeights []float64
	cdf        []float64
	counts     []int
	selected   []int
}

func newRun(ds *dataset.Dataset, opts options, seed int64) *run {
	n := ds.Rows()
	r := &run{
		opts:    opts,
		ds:      ds,
		src:     random.New(seed),
		state:   model.NewStateManager(),
		tracker: robust.NewTracker(ds.Target()),
		fitter:  tree.NewStumpFitter(opts.stumpOptions()...),
		weights: make([]float64, n),
	}
	if opts.bootstrap {
		r.fitWeights = make([]float64, n)
		r.cdf = make([]float64, n)
		r.counts = make([]int, n)
		r.selected = make([]int, n)
	}
	r.fitter.Prepare(ds)
	return r
}

func (r *run) boost(iterations int, logger log.Logger) (*Report, error) {
	n, d := r.ds.Dims()
	if err := r.state.Start(iterations, n, d); err != nil {
		return nil, err
	}

	uniform := 1.0 / float64(n)
	for i := range r.weights {
		r.weights[i] = uniform
	}
	r.tracker.Reset(robust.Baseline(r.ds.Target()))
	center, scale := r.tracker.Scale()
	floor := r.opts.scaleFloor * scale

	var last *tree.Stump
	for t := 1; t <= iterations; t++ {
		fitWeights := r.weights
		if r.opts.bootstrap {
			fitWeights = r.resample()
		}

		stump, err := r.fitter.Fit(fitWeights, r.tracker.Residuals(), r.src)
		if err != nil {
			if !errors.Is(err, errors.ErrDegenerateFit) {
				return nil, err
			}
			if err := r.state.Advance(true); err != nil {
				return nil, err
			}
			continue
		}

		r.tracker.Fold(stump, r.ds, r.opts.learningRate)
		center, scale = r.tracker.Scale()
		scale = math.Max(scale, floor)
		r.opts.policy.Reweight(r.tracker.Residuals(), center, scale, r.weights)
		last = &stump

		if err := r.state.Advance(false); err != nil {
			return nil, err
		}
		if t%progressEvery == 0 {
			logger.Debug("Boosting progress",
				log.IterationKey, t,
				log.SkippedKey, r.state.Skipped(),
				log.ScaleKey, scale,
			)
		}
	}

	if err := r.state.Converge(); err != nil {
		return nil, err
	}

	report := &Report{
		Weights:    r.weights,
		Iterations: r.state.Iteration(),
		Skipped:    r.state.Skipped(),
		Center:     center,
		Scale:      scale,
		ScaleFloor: floor,
		LastStump:  last,
	}
	if r.opts.bootstrap {
		report.SelectionCounts = r.selected
	}
	return report, nil
}

// resample draws a weighted bootstrap of the rows and returns the draw
// multiplicities as fit weights.
func (r *run) resample() []float64 {
	r.src.Bootstrap(r.weights, r.cdf, r.counts)
	for i, c := range r.counts {
		r.fitWeights[i] = float64(c)
		r.selected[i] += c
	}
	return r.fitWeights
}
