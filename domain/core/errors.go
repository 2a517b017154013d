package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrReportNotFound = fmt.Errorf("%w: report", ErrNotFound)

	// Input contract errors
	ErrInvalidUnit  = errors.New("invalid unit record")
	ErrDuplicateKey = errors.New("duplicate unit_id")

	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewNotFoundError wraps ErrNotFound with the resource and id
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewUnitError reports a contract violation on a specific unit
func NewUnitError(unitID string, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidUnit, unitID, reason)
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInsufficientData reports whether err signals a too-small sample
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
