// Package linear provides a sample-weighted least squares regressor.
//
// Its main use is the second stage of outlier-aware regression: compute
// outlier weights with package boost, then refit a linear model with those
// weights so that suspicious rows barely move the coefficients.
//
// Example usage:
//
//	weights, err := boost.NewBooster(seed).FindOutlierWeights(X, y, 5000)
//	if err != nil {
//		log.Fatal(err)
//	}
//	lr := linear.NewLinearRegression()
//	if err := lr.FitWeighted(X, y, weights); err != nil {
//		log.Fatal(err)
//	}
//	predictions, err := lr.Predict(XTest)
package linear

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/core/dataset"
	"github.com/ezoic/oddvibe/core/model"
	"github.com/ezoic/oddvibe/metrics"
	"github.com/ezoic/oddvibe/pkg/errors"
	"github.com/ezoic/oddvibe/pkg/log"
)

// LinearRegression is a linear model fitted by (weighted) least squares.
type LinearRegression struct {
	State     *model.StateManager // Fit lifecycle; converged once fitted
	Weights   *mat.VecDense       // Model coefficients
	Intercept float64             // Model intercept
	NFeatures int                 // Number of features
	logger    log.Logger
}

// NewLinearRegression creates an untrained linear regression model.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
		log.ComponentKey, "linear",
	)

	return lr
}

// Fit trains the model by ordinary least squares. It is FitWeighted with
// every sample weighted equally.
func (lr *LinearRegression) Fit(X mat.Matrix, y mat.Vector) error {
	return lr.FitWeighted(X, y, nil)
}

// FitWeighted trains the model by minimizing Σ w_i (y_i − x_i·β − β0)².
//
// The weights need not be normalized; a nil slice means uniform weights.
// Samples with zero weight do not influence the fit.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Target vector of length n_samples
//   - sampleWeights: One non-negative weight per sample, or nil
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if y or sampleWeights disagree with X
//   - ErrNonFinite: if X or y hold NaN or infinite values
//   - ErrInvalidParameter: if a weight is negative or non-finite, or all are zero
//   - ErrSingularMatrix: if the weighted normal equations cannot be solved
func (lr *LinearRegression) FitWeighted(X mat.Matrix, y mat.Vector, sampleWeights []float64) (err error) {
	const op = "LinearRegression.FitWeighted"
	defer errors.Recover(&err, op)

	startTime := time.Now()

	ds, err := dataset.New(X, y)
	if err != nil {
		return err
	}
	r, c := ds.Dims()

	w, err := normalizeWeights(op, sampleWeights, r)
	if err != nil {
		return err
	}

	lr.logger.Info("Training started",
		log.OperationKey, log.OperationRefit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	// Rows of [1, X] and y scaled by sqrt(w) turn weighted least squares into
	// ordinary least squares.
	design := mat.NewDense(r, c+1, nil)
	target := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		s := math.Sqrt(w[i])
		design.Set(i, 0, s)
		for j := 0; j < c; j++ {
			design.Set(i, j+1, s*ds.At(i, j))
		}
		target.SetVec(i, s*ds.Y(i))
	}

	var XTX mat.Dense
	XTX.Mul(design.T(), design)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError(op, "singular matrix", errors.ErrSingularMatrix)
	}

	var XTy mat.VecDense
	XTy.MulVec(design.T(), target)

	coef := mat.NewVecDense(c+1, nil)
	coef.MulVec(&XTXInv, &XTy)

	lr.NFeatures = c
	lr.Intercept = coef.AtVec(0)
	lr.Weights = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.Weights.SetVec(j, coef.AtVec(j+1))
	}

	if lr.State == nil {
		lr.State = model.NewStateManager()
	}
	lr.State.MarkFitted(r, c)

	lr.logger.Info("Training completed",
		log.OperationKey, log.OperationRefit,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	return nil
}

// Predict returns X·β + β0 for every row of X.
//
// Errors:
//   - ErrNotFitted: if the model hasn't been trained yet
//   - ErrDimensionMismatch: if X has a different number of features than
//     the training data
func (lr *LinearRegression) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer errors.Recover(&err, "LinearRegression.Predict")
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.Intercept)
	}

	lr.logger.Debug("Prediction completed", log.SamplesKey, r)

	return predictions, nil
}

// Score returns the R² of the model's predictions on X against y, with the
// given sample weights (nil for uniform).
func (lr *LinearRegression) Score(X mat.Matrix, y mat.Vector, sampleWeights []float64) (_ float64, err error) {
	defer errors.Recover(&err, "LinearRegression.Score")

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.WeightedR2Score(mat.VecDenseCopyOf(y), yPred, sampleWeights)
}

// GetWeights returns a copy of the learned coefficients.
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept returns the learned intercept, or 0 before Fit.
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// IsFitted reports whether the model has been trained.
func (lr *LinearRegression) IsFitted() bool {
	return lr.State != nil && lr.State.IsConverged()
}

// normalizeWeights validates sampleWeights and scales them to sum to n, so
// the normal equations keep the magnitude of an unweighted fit.
func normalizeWeights(op string, sampleWeights []float64, n int) ([]float64, error) {
	w := make([]float64, n)
	if sampleWeights == nil {
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if len(sampleWeights) != n {
		return nil, errors.NewDimensionError(op, n, len(sampleWeights), 0)
	}
	for i, v := range sampleWeights {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewValueError(op, fmt.Sprintf("sample weight %d is %v", i, v))
		}
	}
	total := floats.Sum(sampleWeights)
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, errors.NewValueError(op, "sample weights must have a positive finite sum")
	}
	floats.ScaleTo(w, float64(n)/total, sampleWeights)
	return w, nil
}
