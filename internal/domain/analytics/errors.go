package analytics

import (
	"errors"
	"fmt"
)

// Analytics domain errors
var (
	// Failure kinds; every collector error wraps exactly one of these.
	ErrReadFailure        = errors.New("record source could not be queried")
	ErrComputationFailure = errors.New("malformed record data")

	// Computation failure causes
	ErrUnknownEnumValue    = errors.New("value outside the known enum")
	ErrTelemetryOutOfRange = errors.New("telemetry figure out of range")

	// Record reader errors
	ErrUnsupportedFilter = errors.New("unsupported filter field")
	ErrUnsupportedEntity = errors.New("unsupported entity type")

	// Request errors
	ErrInvalidToken     = errors.New("invalid token")
	ErrMissingToken     = errors.New("missing token")
	ErrInsufficientRole = errors.New("role not allowed for this operation")
)

// CategoryError is what a collector reports before falling back to empty metrics.
type CategoryError struct {
	Category Category
	Kind     error
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Category.Tag(), e.Kind, e.Err)
}

func (e *CategoryError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// KindName is the short label used in snapshots and logs.
func (e *CategoryError) KindName() string {
	switch {
	case errors.Is(e.Kind, ErrReadFailure):
		return "read_failure"
	case errors.Is(e.Kind, ErrComputationFailure):
		return "computation_failure"
	default:
		return "unknown"
	}
}

// ReadFailure wraps a record source error.
func ReadFailure(c Category, err error) *CategoryError {
	return &CategoryError{Category: c, Kind: ErrReadFailure, Err: err}
}

// ComputationFailure wraps an unexpected branch in a collector.
func ComputationFailure(c Category, err error) *CategoryError {
	return &CategoryError{Category: c, Kind: ErrComputationFailure, Err: err}
}
