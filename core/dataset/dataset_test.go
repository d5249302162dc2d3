package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/pkg/errors"
)

func TestNew(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1.0, 10.0,
		2.0, 20.0,
		3.0, 30.0,
	})
	y := mat.NewVecDense(3, []float64{5, 6, 7})

	ds, err := New(X, y)
	require.NoError(t, err)

	r, c := ds.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 20.0, ds.At(1, 1))
	assert.Equal(t, 7.0, ds.Y(2))
	assert.Equal(t, []float64{10, 20, 30}, ds.Column(1, nil))
	assert.True(t, mat.Equal(X, ds.Features()))
}

func TestNewTransposedInputIsCopied(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	y := mat.NewVecDense(3, []float64{0, 0, 0})

	ds, err := New(X.T(), y)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, 2, ds.Cols())
	assert.Equal(t, 6.0, ds.At(2, 1))
}

func TestNewSubviewStride(t *testing.T) {
	full := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	sub := full.Slice(0, 3, 1, 3)
	ds, err := New(sub, mat.NewVecDense(3, nil))
	require.NoError(t, err)

	assert.Equal(t, 8.0, ds.At(2, 0))
	assert.True(t, mat.Equal(sub, ds.Features()))
}

func TestNewDoesNotMutateInput(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	target := []float64{1, 2}
	X := mat.NewDense(2, 2, data)
	y := mat.NewVecDense(2, target)

	_, err := New(X, y)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, data)
	assert.Equal(t, []float64{1, 2}, target)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name     string
		X        mat.Matrix
		y        mat.Vector
		sentinel error
	}{
		{
			name:     "empty matrix",
			X:        &mat.Dense{},
			y:        &mat.VecDense{},
			sentinel: errors.ErrEmptyData,
		},
		{
			name:     "nil matrix",
			X:        nil,
			y:        nil,
			sentinel: errors.ErrEmptyData,
		},
		{
			name:     "short target",
			X:        mat.NewDense(3, 1, []float64{1, 2, 3}),
			y:        mat.NewVecDense(2, []float64{1, 2}),
			sentinel: errors.ErrDimensionMismatch,
		},
		{
			name:     "nan feature",
			X:        mat.NewDense(2, 1, []float64{1, math.NaN()}),
			y:        mat.NewVecDense(2, []float64{1, 2}),
			sentinel: errors.ErrNonFinite,
		},
		{
			name:     "infinite target",
			X:        mat.NewDense(2, 1, []float64{1, 2}),
			y:        mat.NewVecDense(2, []float64{1, math.Inf(-1)}),
			sentinel: errors.ErrNonFinite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.X, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
		})
	}
}

func TestNewShapeMismatchDetails(t *testing.T) {
	_, err := New(mat.NewDense(4, 2, nil), mat.NewVecDense(3, nil))

	var shapeErr *errors.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 4, shapeErr.Rows)
	assert.Equal(t, 3, shapeErr.TargetLen)
}

func TestNewNonFiniteLocation(t *testing.T) {
	_, err := New(mat.NewDense(2, 2, []float64{0, 0, 0, math.Inf(1)}), mat.NewVecDense(2, nil))

	var nf *errors.NonFiniteValueError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 1, nf.Row)
	assert.Equal(t, 1, nf.Col)
}

func TestFromRows(t *testing.T) {
	ds, err := FromRows([][]float64{{1, 2}, {3, 4}}, []float64{9, 8})
	require.NoError(t, err)
	assert.Equal(t, 3.0, ds.At(1, 0))
	assert.Equal(t, []float64{9, 8}, ds.Target())

	_, err = FromRows([][]float64{{1, 2}, {3}}, []float64{1, 2})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	_, err = FromRows(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = FromRows([][]float64{{1}}, nil)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}
