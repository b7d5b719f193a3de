package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientInputs is returned when the workspace holds fewer than two
// vector or two raster datasets. It is raised before any selection prompt.
var ErrInsufficientInputs = errors.New("not enough layers available in the workspace")

// ErrSelectionCancelled is returned when the operator aborts a layer
// selection prompt. The run stops with no side effects.
var ErrSelectionCancelled = errors.New("layer selection was cancelled")

// GeometryOperationError wraps a failed or empty-result geometric operation
// with the pipeline stage it occurred in.
type GeometryOperationError struct {
	Stage string
	Err   error
}

func (e *GeometryOperationError) Error() string {
	return fmt.Sprintf("geometry operation failed at stage %q: %v", e.Stage, e.Err)
}

func (e *GeometryOperationError) Unwrap() error { return e.Err }

// RasterSamplingError wraps a raster read failure. Out-of-coverage points
// are not errors; they receive the nodata sentinel instead.
type RasterSamplingError struct {
	Raster string
	Band   int
	Err    error
}

func (e *RasterSamplingError) Error() string {
	return fmt.Sprintf("raster sampling failed for %s band %d: %v", e.Raster, e.Band, e.Err)
}

func (e *RasterSamplingError) Unwrap() error { return e.Err }
