// Package errors provides the error types and sentinels used across oddvibe.
//
// The package wraps github.com/cockroachdb/errors so that call sites import a
// single errors package and still get stack traces (printed with %+v), safe
// details and the standard errors.Is / errors.As behaviour:
//
//	if err != nil {
//		return errors.Wrap(err, "failed to load features")
//	}
//
// Input-contract violations have dedicated types so that callers can branch on
// them without string matching:
//
//	var shapeErr *errors.ShapeMismatchError
//	if errors.As(err, &shapeErr) {
//		fmt.Println(shapeErr.Rows, shapeErr.TargetLen)
//	}
package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// Sentinel errors. Typed errors below wrap one of these so errors.Is works on
// either the type or the sentinel.
var (
	// ErrEmptyData is returned when a dataset has no rows or no columns.
	ErrEmptyData = cerrors.New("empty data")
	// ErrDimensionMismatch is returned when two inputs disagree on a dimension.
	ErrDimensionMismatch = cerrors.New("dimension mismatch")
	// ErrNotImplemented marks an unsupported code path.
	ErrNotImplemented = cerrors.New("not implemented")
	// ErrSingularMatrix is returned by solvers when the system cannot be inverted.
	ErrSingularMatrix = cerrors.New("singular matrix")
	// ErrInvalidIterationCount is returned for a non-positive iteration budget.
	ErrInvalidIterationCount = cerrors.New("invalid iteration count")
	// ErrNonFinite is returned when an input holds NaN or an infinity.
	ErrNonFinite = cerrors.New("non-finite value")
	// ErrDegenerateFit is returned by a weak learner that found no informative split.
	ErrDegenerateFit = cerrors.New("degenerate fit")
	// ErrInvalidParameter is returned for out-of-range hyperparameters.
	ErrInvalidParameter = cerrors.New("invalid parameter")
	// ErrNotFitted is returned when a model is used before Fit.
	ErrNotFitted = cerrors.New("model not fitted")
)

// Re-exported helpers from cockroachdb/errors.
var (
	New    = cerrors.New
	Newf   = cerrors.Newf
	Wrap   = cerrors.Wrap
	Wrapf  = cerrors.Wrapf
	Is     = cerrors.Is
	As     = cerrors.As
	Unwrap = cerrors.Unwrap
)

// DimensionError reports a mismatch along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError for op.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch on axis %d: expected %d, got %d", e.Op, e.Axis, e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for op.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ValueError) Unwrap() error { return ErrInvalidParameter }

// ModelError is a failure inside a model operation, wrapping its cause.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError that wraps err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oddvibe: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("oddvibe: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ShapeMismatchError is returned when the target length differs from the
// number of feature rows.
type ShapeMismatchError struct {
	Op        string
	Rows      int
	TargetLen int
}

// NewShapeMismatchError creates a ShapeMismatchError.
func NewShapeMismatchError(op string, rows, targetLen int) *ShapeMismatchError {
	return &ShapeMismatchError{Op: op, Rows: rows, TargetLen: targetLen}
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: target has %d values but features have %d rows", e.Op, e.TargetLen, e.Rows)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrDimensionMismatch }

// EmptyDatasetError is returned for a dataset without rows or columns.
type EmptyDatasetError struct {
	Op   string
	Rows int
	Cols int
}

// NewEmptyDatasetError creates an EmptyDatasetError.
func NewEmptyDatasetError(op string, rows, cols int) *EmptyDatasetError {
	return &EmptyDatasetError{Op: op, Rows: rows, Cols: cols}
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: empty dataset (%d rows, %d features)", e.Op, e.Rows, e.Cols)
}

func (e *EmptyDatasetError) Unwrap() error { return ErrEmptyData }

// InvalidIterationCountError is returned when the iteration budget is not positive.
type InvalidIterationCountError struct {
	Op         string
	Iterations int
}

// NewInvalidIterationCountError creates an InvalidIterationCountError.
func NewInvalidIterationCountError(op string, iterations int) *InvalidIterationCountError {
	return &InvalidIterationCountError{Op: op, Iterations: iterations}
}

func (e *InvalidIterationCountError) Error() string {
	return fmt.Sprintf("%s: iterations must be positive, got %d", e.Op, e.Iterations)
}

func (e *InvalidIterationCountError) Unwrap() error { return ErrInvalidIterationCount }

// NonFiniteValueError locates the first NaN or infinity in an input.
// Col is -1 when the value belongs to the target.
type NonFiniteValueError struct {
	Op    string
	Row   int
	Col   int
	Value float64
}

// NewNonFiniteValueError creates a NonFiniteValueError.
func NewNonFiniteValueError(op string, row, col int, value float64) *NonFiniteValueError {
	return &NonFiniteValueError{Op: op, Row: row, Col: col, Value: value}
}

func (e *NonFiniteValueError) Error() string {
	if e.Col < 0 {
		return fmt.Sprintf("%s: target[%d] is %v", e.Op, e.Row, e.Value)
	}
	return fmt.Sprintf("%s: features[%d, %d] is %v", e.Op, e.Row, e.Col, e.Value)
}

func (e *NonFiniteValueError) Unwrap() error { return ErrNonFinite }

// DegenerateFitError is returned by a weak learner when none of its candidate
// features admits a split.
type DegenerateFitError struct {
	Op       string
	Features []int
}

// NewDegenerateFitError creates a DegenerateFitError for the candidate features.
func NewDegenerateFitError(op string, features []int) *DegenerateFitError {
	return &DegenerateFitError{Op: op, Features: features}
}

func (e *DegenerateFitError) Error() string {
	return fmt.Sprintf("%s: no informative split among features %v", e.Op, e.Features)
}

func (e *DegenerateFitError) Unwrap() error { return ErrDegenerateFit }

// NotFittedError is returned when a method needs a fitted model.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s called before Fit", e.ModelName, e.Method)
}

func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// Recover converts a panic into a ModelError assigned to *err. Use it as
//
//	defer errors.Recover(&err, "Booster.Fit")
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = cerrors.Newf("%v", v)
	}
	*err = NewModelError(op, "panic recovered", cerrors.WithStack(cause))
}
