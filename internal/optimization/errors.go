package optimization

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoDimensions is returned for an empty Bounds.
	ErrNoDimensions = errors.New("bounds have no dimensions")
	// ErrInvalidBound is returned for a bound with min > max or a non-finite end.
	ErrInvalidBound = errors.New("invalid bound")
	// ErrGridTooSmall is returned for a grid resolution below two points per axis.
	ErrGridTooSmall = errors.New("grid size must be at least 2")
	// ErrDimensionMismatch is returned when a point and its bounds disagree in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Error is an optimization error annotated with where it happened.
type Error struct {
	// Op is the operation that failed.
	Op string
	// Component is the backend or package reporting the error.
	Component string
	// Err is the underlying error.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Component != "" && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Op, e.Err)
	case e.Component != "":
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprint(e.Err)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WrapError annotates err with component and op. A nil err stays nil.
func WrapError(err error, component, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Component: component, Err: err}
}

// Validate checks that every bound is finite and ordered. The optimizers do
// not call it; they produce undefined coordinates for malformed bounds.
func (b Bounds) Validate() error {
	if len(b) == 0 {
		return ErrNoDimensions
	}
	for i, bd := range b {
		if math.IsNaN(bd.Min) || math.IsNaN(bd.Max) || math.IsInf(bd.Min, 0) || math.IsInf(bd.Max, 0) {
			return fmt.Errorf("%w: dimension %d is not finite: [%v, %v]", ErrInvalidBound, i, bd.Min, bd.Max)
		}
		if bd.Min > bd.Max {
			return fmt.Errorf("%w: dimension %d has min %v > max %v", ErrInvalidBound, i, bd.Min, bd.Max)
		}
	}
	return nil
}

// ValidateGridSize rejects resolutions that make the per-axis step undefined.
func ValidateGridSize(gridSize int) error {
	if gridSize < 2 {
		return fmt.Errorf("%w: got %d", ErrGridTooSmall, gridSize)
	}
	return nil
}

// Clamp moves x into bounds in place. x and b must have the same length.
func (b Bounds) Clamp(x []float64) {
	for i := range x {
		x[i] = math.Max(b[i].Min, math.Min(x[i], b[i].Max))
	}
}
