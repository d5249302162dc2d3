// Package dataset provides the read-only view of a feature matrix and its
// target that the boosting engine works on.
package dataset

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/oddvibe/pkg/errors"
)

// Dataset is an immutable n × d feature view plus an n-length target.
//
// When the features come in as a *mat.Dense the backing array is borrowed,
// not copied; the caller must not mutate it while a Dataset is in use.
type Dataset struct {
	data   []float64
	stride int
	rows   int
	cols   int
	target []float64
}

// New validates X and y and returns a view over them.
//
// Errors:
//   - *errors.EmptyDatasetError if X has no rows or no columns
//   - *errors.ShapeMismatchError if y.Len() differs from the row count
//   - *errors.NonFiniteValueError on the first NaN or infinity
func New(X mat.Matrix, y mat.Vector) (*Dataset, error) {
	const op = "Dataset.New"

	if X == nil {
		return nil, errors.NewEmptyDatasetError(op, 0, 0)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewEmptyDatasetError(op, r, c)
	}

	n := 0
	if y != nil {
		n = y.Len()
	}
	if n != r {
		return nil, errors.NewShapeMismatchError(op, r, n)
	}

	ds := &Dataset{rows: r, cols: c, target: make([]float64, r)}

	if raw, ok := X.(mat.RawMatrixer); ok {
		rm := raw.RawMatrix()
		ds.data = rm.Data
		ds.stride = rm.Stride
	} else {
		dense := mat.DenseCopyOf(X)
		rm := dense.RawMatrix()
		ds.data = rm.Data
		ds.stride = rm.Stride
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := ds.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewNonFiniteValueError(op, i, j, v)
			}
		}
		v := y.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewNonFiniteValueError(op, i, -1, v)
		}
		ds.target[i] = v
	}

	return ds, nil
}

// FromRows builds a Dataset from row slices, copying them.
func FromRows(rows [][]float64, target []float64) (*Dataset, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewEmptyDatasetError("Dataset.FromRows", len(rows), 0)
	}
	d := len(rows[0])
	flat := make([]float64, 0, len(rows)*d)
	for i, row := range rows {
		if len(row) != d {
			return nil, errors.NewDimensionError("Dataset.FromRows", d, len(row), 1)
		}
		flat = append(flat, rows[i]...)
	}
	var y mat.Vector
	if len(target) > 0 {
		y = mat.NewVecDense(len(target), append([]float64(nil), target...))
	}
	return New(mat.NewDense(len(rows), d, flat), y)
}

// Dims returns the number of rows and features.
func (ds *Dataset) Dims() (int, int) { return ds.rows, ds.cols }

// Rows returns the number of rows.
func (ds *Dataset) Rows() int { return ds.rows }

// Cols returns the number of features.
func (ds *Dataset) Cols() int { return ds.cols }

// At returns feature j of row i.
func (ds *Dataset) At(i, j int) float64 { return ds.data[i*ds.stride+j] }

// Y returns the target of row i.
func (ds *Dataset) Y(i int) float64 { return ds.target[i] }

// Target returns the target values. The slice must not be modified.
func (ds *Dataset) Target() []float64 { return ds.target }

// Column copies feature j into dst, growing it if needed.
func (ds *Dataset) Column(j int, dst []float64) []float64 {
	if cap(dst) < ds.rows {
		dst = make([]float64, ds.rows)
	}
	dst = dst[:ds.rows]
	for i := range dst {
		dst[i] = ds.At(i, j)
	}
	return dst
}

// Features returns the features as a gonum matrix sharing the view's storage.
func (ds *Dataset) Features() mat.Matrix {
	return mat.NewDense(ds.rows, ds.cols, ds.rowMajor())
}

func (ds *Dataset) rowMajor() []float64 {
	if ds.stride == ds.cols {
		return ds.data[:ds.rows*ds.cols]
	}
	out := make([]float64, 0, ds.rows*ds.cols)
	for i := 0; i < ds.rows; i++ {
		out = append(out, ds.data[i*ds.stride:i*ds.stride+ds.cols]...)
	}
	return out
}
