// Package robust holds the residual bookkeeping and the bounded-influence
// reweighting used by the boosting engine.
package robust

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/oddvibe/core/dataset"
	"github.com/ezoic/oddvibe/sklearn/tree"
)

// MADConsistency rescales the median absolute deviation so that it estimates
// the standard deviation of Gaussian noise.
const MADConsistency = 1.4826

// Tracker owns the running ensemble prediction and the residuals of one run.
// Every buffer is allocated once in NewTracker.
type Tracker struct {
	target     []float64
	prediction []float64
	residual   []float64
	scratch    []float64
}

// NewTracker creates a tracker for target. The slice is read, never written.
func NewTracker(target []float64) *Tracker {
	n := len(target)
	return &Tracker{
		target:     target,
		prediction: make([]float64, n),
		residual:   make([]float64, n),
		scratch:    make([]float64, n),
	}
}

// Baseline returns the constant initial prediction: the mean of target under
// uniform weights.
func Baseline(target []float64) float64 {
	return stat.Mean(target, nil)
}

// Reset sets every prediction to baseline.
func (t *Tracker) Reset(baseline float64) {
	for i := range t.prediction {
		t.prediction[i] = baseline
	}
	floats.SubTo(t.residual, t.target, t.prediction)
}

// Fold adds rate times the stump's output to the predictions and refreshes
// the residuals.
func (t *Tracker) Fold(s tree.Stump, ds *dataset.Dataset, rate float64) {
	for i := range t.prediction {
		t.prediction[i] += rate * s.PredictRow(ds, i)
	}
	floats.SubTo(t.residual, t.target, t.prediction)
}

// Residuals returns target minus prediction. The slice is owned by the
// tracker and changes on the next Fold.
func (t *Tracker) Residuals() []float64 { return t.residual }

// Predictions returns the current ensemble predictions.
func (t *Tracker) Predictions() []float64 { return t.prediction }

// Scale returns the median of the residuals and their normalized median
// absolute deviation around it.
func (t *Tracker) Scale() (center, scale float64) {
	copy(t.scratch, t.residual)
	center = medianInPlace(t.scratch)
	for i, r := range t.residual {
		t.scratch[i] = math.Abs(r - center)
	}
	scale = MADConsistency * medianInPlace(t.scratch)
	return center, scale
}

// Median returns the median of x without modifying it. For an even count it
// is the midpoint of the two middle values. Median panics on empty input.
func Median(x []float64) float64 {
	s := make([]float64, len(x))
	copy(s, x)
	return medianInPlace(s)
}

func medianInPlace(s []float64) float64 {
	if len(s) == 0 {
		panic("robust: median of empty slice")
	}
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return s[m-1] + (s[m]-s[m-1])/2
}
