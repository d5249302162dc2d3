package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/boost"
	"github.com/ezoic/oddvibe/datasets"
	"github.com/ezoic/oddvibe/metrics"
	"github.com/ezoic/oddvibe/pkg/errors"
)

func TestLinearRegression_Fit(t *testing.T) {
	tests := []struct {
		name          string
		X             *mat.Dense
		y             *mat.VecDense
		wantWeights   []float64
		wantIntercept float64
	}{
		{
			name: "simple linear relationship y = 2x + 1",
			X:    mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
			y:    mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),

			wantWeights:   []float64{2},
			wantIntercept: 1,
		},
		{
			name: "multiple features",
			X: mat.NewDense(5, 2, []float64{
				1.0, 2.0,
				2.0, 1.0,
				3.0, 4.0,
				4.0, 3.0,
				5.0, 5.0,
			}),
			y: mat.NewVecDense(5, []float64{
				5.0,  // 1*1 + 2*2
				4.0,  // 1*2 + 2*1
				11.0, // 1*3 + 2*4
				10.0, // 1*4 + 2*3
				15.0, // 1*5 + 2*5
			}),
			wantWeights:   []float64{1, 2},
			wantIntercept: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			require.NoError(t, lr.Fit(tt.X, tt.y))
			assert.True(t, lr.IsFitted())
			assert.InDeltaSlice(t, tt.wantWeights, lr.GetWeights(), 1e-8)
			assert.InDelta(t, tt.wantIntercept, lr.GetIntercept(), 1e-8)
		})
	}
}

func TestLinearRegression_FitErrors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	tests := []struct {
		name     string
		X        mat.Matrix
		y        mat.Vector
		weights  []float64
		sentinel error
	}{
		{"empty data", &mat.Dense{}, &mat.VecDense{}, nil, errors.ErrEmptyData},
		{"mismatched dimensions", X, mat.NewVecDense(2, []float64{1, 2}), nil, errors.ErrDimensionMismatch},
		{"short weights", X, y, []float64{1, 1}, errors.ErrDimensionMismatch},
		{"negative weight", X, y, []float64{1, -1, 1}, errors.ErrInvalidParameter},
		{"zero weights", X, y, []float64{0, 0, 0}, errors.ErrInvalidParameter},
		{"collinear features", mat.NewDense(3, 2, []float64{1, 2, 2, 4, 3, 6}), y, nil, errors.ErrSingularMatrix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			err := lr.FitWeighted(tt.X, tt.y, tt.weights)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.False(t, lr.IsFitted())
		})
	}
}

func TestLinearRegression_Predict(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.Is(err, errors.ErrNotFitted))
	assert.Equal(t, 0.0, lr.GetIntercept())

	require.NoError(t, lr.Fit(
		mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
		mat.NewVecDense(5, []float64{3, 5, 7, 9, 11}),
	))

	pred, err := lr.Predict(mat.NewDense(3, 1, []float64{0, 6, 10}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 13, 21}, pred.RawVector().Data, 1e-6)

	_, err = lr.Predict(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestLinearRegression_ZeroWeightIgnoresSample(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewVecDense(5, []float64{3, 5, 700, 9, 11})

	lr := NewLinearRegression()
	require.NoError(t, lr.FitWeighted(X, y, []float64{0.25, 0.25, 0, 0.25, 0.25}))
	assert.InDeltaSlice(t, []float64{2}, lr.GetWeights(), 1e-8)
	assert.InDelta(t, 1.0, lr.GetIntercept(), 1e-8)

	score, err := lr.Score(X, y, []float64{1, 1, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-10)
}

func TestLinearRegression_ScoreMatchesMetrics(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(6, []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.2})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	score, err := lr.Score(X, y, nil)
	require.NoError(t, err)

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	r2, err := metrics.R2Score(y, pred)
	require.NoError(t, err)
	assert.InDelta(t, r2, score, 1e-12)
	assert.Greater(t, score, 0.99)
}

func TestLinearRegression_RefitOnOutlierWeights(t *testing.T) {
	sample, err := datasets.DefaultCorruptedLinear().Generate()
	require.NoError(t, err)

	weights, err := boost.NewBooster(1480561820).FindOutlierWeights(sample.X, sample.Y, 2000)
	require.NoError(t, err)

	ols := NewLinearRegression()
	require.NoError(t, ols.Fit(sample.X, sample.Y))

	refit := NewLinearRegression()
	require.NoError(t, refit.FitWeighted(sample.X, sample.Y, weights))

	inliers := make([]float64, sample.Y.Len())
	for _, i := range sample.Inliers() {
		inliers[i] = 1
	}

	olsPred, err := ols.Predict(sample.X)
	require.NoError(t, err)
	refitPred, err := refit.Predict(sample.X)
	require.NoError(t, err)

	olsMSE, err := metrics.WeightedMSE(sample.Y, olsPred, inliers)
	require.NoError(t, err)
	refitMSE, err := metrics.WeightedMSE(sample.Y, refitPred, inliers)
	require.NoError(t, err)

	assert.Less(t, refitMSE, olsMSE)
}

func BenchmarkLinearRegression_FitWeighted(b *testing.B) {
	nSamples := 1000
	nFeatures := 10

	X := mat.NewDense(nSamples, nFeatures, nil)
	y := mat.NewVecDense(nSamples, nil)
	w := make([]float64, nSamples)

	for i := 0; i < nSamples; i++ {
		sum := 0.0
		for j := 0; j < nFeatures; j++ {
			val := float64((i*7+j*13)%101) / 101
			X.Set(i, j, val)
			sum += val * float64(j+1)
		}
		y.SetVec(i, sum)
		w[i] = 1 + float64(i%3)
	}

	lr := NewLinearRegression()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = lr.FitWeighted(X, y, w)
	}
}

func TestLinearRegression_RefitReplacesState(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(mat.NewDense(4, 1, []float64{1, 2, 3, 4}), mat.NewVecDense(4, []float64{2, 4, 6, 8})))
	assert.True(t, lr.IsFitted())
	assert.True(t, lr.State.IsConverged())
	assert.Zero(t, lr.State.Iteration())

	X := mat.NewDense(5, 2, []float64{1, 0, 0, 1, 1, 1, 2, 1, 1, 2})
	y := mat.NewVecDense(5, []float64{1, 1, 2, 3, 3})
	require.NoError(t, lr.Fit(X, y))
	assert.True(t, lr.IsFitted())
	n, d := lr.State.Dimensions()
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, d)
	assert.InDeltaSlice(t, []float64{1, 1}, lr.GetWeights(), 1e-8)
	assert.InDelta(t, 0.0, lr.GetIntercept(), 1e-8)
}
