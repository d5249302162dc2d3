package errors_test

import (
	"errors"
	"fmt"

	oddErrors "github.com/ezoic/oddvibe/pkg/errors"
)

// Example_customErrorTypes shows how callers recover the typed input errors.
func Example_customErrorTypes() {
	shapeErr := oddErrors.NewShapeMismatchError("Booster.FindOutlierWeights", 50, 49)

	wrappedErr := fmt.Errorf("driver failed: %w", shapeErr)

	var target *oddErrors.ShapeMismatchError
	if errors.As(wrappedErr, &target) {
		fmt.Printf("Shape error: %d rows, %d targets\n", target.Rows, target.TargetLen)
	}
	if errors.Is(wrappedErr, oddErrors.ErrDimensionMismatch) {
		fmt.Println("Dimension mismatch sentinel found")
	}

	// Output: Shape error: 50 rows, 49 targets
	// Dimension mismatch sentinel found
}

// Example_errorComparison branches on sentinels for each input contract.
func Example_errorComparison() {
	errs := []error{
		oddErrors.NewEmptyDatasetError("Fit", 0, 2),
		oddErrors.NewInvalidIterationCountError("Fit", 0),
		oddErrors.NewNonFiniteValueError("Fit", 3, -1, 0),
	}

	for _, err := range errs {
		switch {
		case errors.Is(err, oddErrors.ErrEmptyData):
			fmt.Println("empty:", err)
		case errors.Is(err, oddErrors.ErrInvalidIterationCount):
			fmt.Println("iterations:", err)
		case errors.Is(err, oddErrors.ErrNonFinite):
			fmt.Println("non-finite:", err)
		}
	}

	// Output: empty: Fit: empty dataset (0 rows, 2 features)
	// iterations: Fit: iterations must be positive, got 0
	// non-finite: Fit: target[3] is 0
}

// Example_errorLogging prints a ModelError chain.
func Example_errorLogging() {
	baseErr := oddErrors.NewModelError("Booster", "stump search failed",
		oddErrors.ErrNotImplemented)

	opErr := fmt.Errorf("boosting round 150: %w", baseErr)

	fmt.Printf("Error occurred: %v\n", opErr)

	// Output: Error occurred: boosting round 150: oddvibe: Booster: stump search failed: not implemented
}
