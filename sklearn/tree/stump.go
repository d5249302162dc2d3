// Package tree implements the weighted decision stump used as the weak
// learner of the boosting engine.
//
// A stump splits the rows on one feature at one threshold and predicts a
// constant on each side. Rows with x <= Threshold go left. The fitter picks
// the split that minimizes the weighted squared error
//
//	Σ w_i (t_i − side_mean)²
//
// over a candidate set of features drawn from a random.Source.
package tree

import (
	"math"
	"sort"

	"github.com/ezoic/oddvibe/core/dataset"
	"github.com/ezoic/oddvibe/core/random"
	"github.com/ezoic/oddvibe/pkg/errors"
)

// DefaultMinSamplesLeaf is the minimum number of positively weighted rows on
// each side of a split.
const DefaultMinSamplesLeaf = 5

// Stump is a single-split, two-leaf regressor.
type Stump struct {
	Feature    int     // Feature index the split is on
	Threshold  float64 // Rows with x <= Threshold go left
	LeftValue  float64 // Prediction for the left side
	RightValue float64 // Prediction for the right side
	Error      float64 // Weighted squared error of the fit
}

// Predict returns the stump's prediction for feature value x.
func (s Stump) Predict(x float64) float64 {
	if x <= s.Threshold {
		return s.LeftValue
	}
	return s.RightValue
}

// PredictRow returns the prediction for row i of ds.
func (s Stump) PredictRow(ds *dataset.Dataset, i int) float64 {
	return s.Predict(ds.At(i, s.Feature))
}

// StumpFitter fits stumps against one dataset. Prepare binds the dataset and
// presorts every feature once; Fit may then be called once per round.
// A StumpFitter is owned by a single run and is not safe for concurrent use.
type StumpFitter struct {
	maxFeatures    int
	minSamplesLeaf int

	ds       *dataset.Dataset
	order    [][]int
	features []int
}

// StumpFitterOption configures a StumpFitter.
type StumpFitterOption func(*StumpFitter)

// WithMaxFeatures sets how many features are drawn per fit. Zero or a value
// >= d uses every feature.
func WithMaxFeatures(k int) StumpFitterOption {
	return func(f *StumpFitter) {
		f.maxFeatures = k
	}
}

// WithMinSamplesLeaf sets the minimum number of positively weighted rows on
// each side of a split.
func WithMinSamplesLeaf(m int) StumpFitterOption {
	return func(f *StumpFitter) {
		f.minSamplesLeaf = m
	}
}

// NewStumpFitter creates a fitter with the given options.
func NewStumpFitter(opts ...StumpFitterOption) *StumpFitter {
	f := &StumpFitter{
		maxFeatures:    0,
		minSamplesLeaf: DefaultMinSamplesLeaf,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.minSamplesLeaf < 1 {
		f.minSamplesLeaf = 1
	}
	return f
}

// Prepare binds ds and sorts the row indices of every feature by value,
// ties kept in row order.
func (f *StumpFitter) Prepare(ds *dataset.Dataset) {
	n, d := ds.Dims()
	f.ds = ds
	f.order = make([][]int, d)
	f.features = make([]int, 0, d)

	for j := 0; j < d; j++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		col := j
		sort.SliceStable(idx, func(a, b int) bool {
			return ds.At(idx[a], col) < ds.At(idx[b], col)
		})
		f.order[j] = idx
	}
}

// Fit finds the best stump for target under weights.
//
// Only rows with positive weight take part in the search. Candidate
// thresholds are midpoints between consecutive distinct values. On exact ties
// the first feature, then the first threshold in ascending order, wins.
// When no candidate feature leaves the minimum leaf size on both sides, the
// search is repeated with single-row leaves, so only features that are
// constant over the weighted rows make a fit degenerate.
//
// Errors:
//   - *errors.DegenerateFitError if every candidate feature is constant over
//     the positively weighted rows
//   - *errors.DimensionError if weights or target do not match the dataset
func (f *StumpFitter) Fit(weights, target []float64, src *random.Source) (Stump, error) {
	const op = "StumpFitter.Fit"

	if f.ds == nil {
		return Stump{}, errors.NewValueError(op, "Prepare must be called before Fit")
	}
	n, d := f.ds.Dims()
	if len(weights) != n {
		return Stump{}, errors.NewDimensionError(op, n, len(weights), 0)
	}
	if len(target) != n {
		return Stump{}, errors.NewDimensionError(op, n, len(target), 0)
	}

	f.features = src.SampleFeatures(d, f.maxFeatures, f.features)

	// Weighted mean over the positive-weight rows; sums below are centered
	// on it to keep the error arithmetic well conditioned.
	var wTot, sTot float64
	nPos := 0
	for i, w := range weights {
		if w > 0 {
			wTot += w
			sTot += w * target[i]
			nPos++
		}
	}
	if nPos < 2 || wTot <= 0 {
		return Stump{}, f.degenerate(op)
	}
	mean := sTot / wTot

	var totalSS, cTot float64
	for i, w := range weights {
		if w > 0 {
			r := target[i] - mean
			totalSS += w * r * r
			cTot += w * r
		}
	}

	minLeaf := f.minSamplesLeaf
	if minLeaf > nPos/2 {
		minLeaf = nPos / 2
	}
	if minLeaf < 1 {
		minLeaf = 1
	}

	sums := splitSums{mean: mean, wTot: wTot, cTot: cTot, totalSS: totalSS, nPos: nPos}
	best, bestErr := f.search(weights, target, sums, minLeaf)
	if best.Feature < 0 && minLeaf > 1 {
		// Lopsided features with too few rows on one side of every
		// threshold still split, with single-row leaves.
		best, bestErr = f.search(weights, target, sums, 1)
	}

	if best.Feature < 0 {
		return Stump{}, f.degenerate(op)
	}
	best.Error = math.Max(bestErr, 0)
	return best, nil
}

// splitSums holds the positive-weight totals a split search is centered on.
type splitSums struct {
	mean    float64
	wTot    float64
	cTot    float64
	totalSS float64
	nPos    int
}

// search scans every candidate feature for the lowest-error split with at
// least minLeaf positive-weight rows per side. Feature is -1 when no split
// qualifies.
func (f *StumpFitter) search(weights, target []float64, sums splitSums, minLeaf int) (Stump, float64) {
	best := Stump{Feature: -1}
	bestErr := math.Inf(1)

	for _, j := range f.features {
		var wLeft, cLeft float64
		nLeft := 0
		prevX := 0.0

		for _, i := range f.order[j] {
			w := weights[i]
			if w <= 0 {
				continue
			}
			x := f.ds.At(i, j)

			if nLeft >= minLeaf && sums.nPos-nLeft >= minLeaf && x > prevX {
				wRight := sums.wTot - wLeft
				cRight := sums.cTot - cLeft
				if wLeft > 0 && wRight > 0 {
					gain := cLeft*cLeft/wLeft + cRight*cRight/wRight
					err := sums.totalSS - gain
					if err < bestErr {
						bestErr = err
						best = Stump{
							Feature:    j,
							Threshold:  midpoint(prevX, x),
							LeftValue:  sums.mean + cLeft/wLeft,
							RightValue: sums.mean + cRight/wRight,
						}
					}
				}
			}

			wLeft += w
			cLeft += w * (target[i] - sums.mean)
			nLeft++
			prevX = x
		}
	}
	return best, bestErr
}

func (f *StumpFitter) degenerate(op string) error {
	features := make([]int, len(f.features))
	copy(features, f.features)
	return errors.NewDegenerateFitError(op, features)
}

// midpoint returns a threshold strictly below hi and not below lo.
func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}
