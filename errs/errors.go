// Package errs defines the error types shared by the projection, circle-fitting,
// steering and memory-estimation packages.
//
// Three typed errors cover every failure the numerical pipeline can surface:
//
//   - FitError: a projection or circle fit could not be computed
//   - ProjectionError: a transform received a vector of the wrong dimensionality
//   - InvalidParameterError: a caller-supplied parameter is out of range or unknown
//
// None of these are retried anywhere. All computations are deterministic given
// their inputs and seed, so callers should change the input instead.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by FitError and ProjectionError.
var (
	ErrEmptyDataset      = errors.New("dataset is empty")
	ErrDimensionMismatch = errors.New("vectors have inconsistent dimensionality")
	ErrDegenerate        = errors.New("data is degenerate")
	ErrUnderdetermined   = errors.New("fewer than 3 distinct points")
	ErrCollinear         = errors.New("points are collinear")
	ErrNotConverged      = errors.New("minimizer did not converge")
)

// FitError reports that a model (projection or circle) could not be fit.
type FitError struct {
	Stage string
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit %s: %v", e.Stage, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// Fit wraps err as a FitError for the given stage.
func Fit(stage string, err error) error {
	return &FitError{Stage: stage, Err: err}
}

// ProjectionError reports a transform called with a vector of the wrong shape.
type ProjectionError struct {
	Op   string
	Want int
	Got  int
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("%s: expected dimension %d, got %d", e.Op, e.Want, e.Got)
}

func (e *ProjectionError) Unwrap() error { return ErrDimensionMismatch }

// Projection returns a ProjectionError for op.
func Projection(op string, want, got int) error {
	return &ProjectionError{Op: op, Want: want, Got: got}
}

// InvalidParameterError reports a parameter outside its accepted domain.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

// InvalidParameter returns an InvalidParameterError.
func InvalidParameter(name string, value any, reason string) error {
	return &InvalidParameterError{Name: name, Value: value, Reason: reason}
}
