// Package metrics provides regression metrics, in plain and sample-weighted
// form, for judging a model refit on outlier weights.
//
// Regression Metrics:
//   - MSE / WeightedMSE: mean squared error
//   - RMSE: square root of MSE
//   - MAE / WeightedMAE: mean absolute error
//   - MedianAbsoluteError: median of the absolute errors, insensitive to a
//     minority of gross errors
//   - R2Score / WeightedR2Score: coefficient of determination
//
// Weighted metrics take one non-negative weight per sample; the weights need
// not be normalized. A nil weight slice means uniform weights.
//
// Example usage:
//
//	mse, err := metrics.WeightedMSE(yTrue, yPred, weights)
//	r2, err := metrics.R2Score(yTrue, yPred)
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/robust"
)

// MSE calculates the mean squared error between true and predicted values.
//
// Errors:
//   - ErrInvalidParameter: if the vectors are empty
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
//
// Example:
//
//	mse, err := metrics.MSE(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	return WeightedMSE(yTrue, yPred, nil)
}

// WeightedMSE calculates Σ w (yTrue − yPred)² / Σ w.
func WeightedMSE(yTrue, yPred *mat.VecDense, weights []float64) (float64, error) {
	diff, err := residuals("WeightedMSE", yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	for i, d := range diff {
		diff[i] = d * d
	}
	return stat.Mean(diff, weights), nil
}

// RMSE calculates the root mean squared error, in the units of the target.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the mean absolute error between true and predicted values.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	return WeightedMAE(yTrue, yPred, nil)
}

// WeightedMAE calculates Σ w |yTrue − yPred| / Σ w.
func WeightedMAE(yTrue, yPred *mat.VecDense, weights []float64) (float64, error) {
	diff, err := residuals("WeightedMAE", yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	return stat.Mean(diff, weights), nil
}

// MedianAbsoluteError calculates the median of |yTrue − yPred|.
func MedianAbsoluteError(yTrue, yPred *mat.VecDense) (float64, error) {
	diff, err := residuals("MedianAbsoluteError", yTrue, yPred, nil)
	if err != nil {
		return 0, err
	}
	for i, d := range diff {
		diff[i] = math.Abs(d)
	}
	return robust.Median(diff), nil
}

// R2Score calculates the coefficient of determination
//
//	R² = 1 − RSS / TSS
//
// A perfect fit scores 1; predicting the mean scores 0.
//
// Errors:
//   - ErrInvalidParameter: if the vectors are empty or the target is constant
//   - ErrDimensionMismatch: if yTrue and yPred have different lengths
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	return WeightedR2Score(yTrue, yPred, nil)
}

// WeightedR2Score calculates R² with both sums of squares weighted, and the
// total sum taken around the weighted mean of yTrue.
func WeightedR2Score(yTrue, yPred *mat.VecDense, weights []float64) (float64, error) {
	const op = "WeightedR2Score"
	diff, err := residuals(op, yTrue, yPred, weights)
	if err != nil {
		return 0, err
	}

	values := make([]float64, yTrue.Len())
	for i := range values {
		values[i] = yTrue.AtVec(i)
	}
	mean := stat.Mean(values, weights)

	var rss, tss float64
	for i, d := range diff {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		rss += w * d * d
		c := values[i] - mean
		tss += w * c * c
	}
	if tss == 0 {
		return 0, errors.NewValueError(op, "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// residuals validates the inputs and returns yTrue − yPred.
func residuals(op string, yTrue, yPred *mat.VecDense, weights []float64) ([]float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	if weights != nil {
		if len(weights) != n {
			return nil, errors.NewDimensionError(op, n, len(weights), 0)
		}
		for i, w := range weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, errors.NewValueError(op, fmt.Sprintf("weight %d is %v", i, w))
			}
		}
		if floats.Sum(weights) <= 0 {
			return nil, errors.NewValueError(op, "weights sum to zero")
		}
	}

	diff := make([]float64, n)
	for i := range diff {
		diff[i] = yTrue.AtVec(i) - yPred.AtVec(i)
	}
	return diff, nil
}
