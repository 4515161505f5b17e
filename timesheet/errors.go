/*
errors.go - Error types for the timesheet core

ERROR CATEGORIES:
  1. Input errors - bad person, category or hours from the caller
  2. Access errors - admin secret rejected, unknown session
  3. Store errors - corrupt persisted content

  Storage I/O failures are not classified here. Stores wrap them with %w
  and they propagate unchanged to the caller.

USAGE:
  if errors.Is(err, timesheet.ErrCorruptStore) {
      var corrupt *timesheet.CorruptStoreError
      errors.As(err, &corrupt)
  }
*/
package timesheet

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyPerson is returned when an operation needs a person and got "".
	ErrEmptyPerson = errors.New("person is required")

	// ErrUnknownPerson is returned when a person is not in the configured list.
	ErrUnknownPerson = errors.New("unknown person")

	// ErrUnknownCategory is returned for a category outside Normal/Astreinte.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidHours is returned for hours that are not a number or out of range.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrUnauthorized is returned when the admin secret is rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionNotFound is returned for an unknown or ended session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrCorruptStore is returned in strict mode when persisted content cannot be parsed.
	ErrCorruptStore = errors.New("corrupt store")

	// ErrUnsupportedFormat is returned for an export or import format we do not handle.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CorruptStoreError describes where persisted content failed to parse.
// Line is 0 when the failure is not tied to one row.
type CorruptStoreError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptStoreError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt store %s at line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("corrupt store %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() []error {
	return []error{ErrCorruptStore, e.Err}
}

// InvalidHoursError reports an hours cell outside [0, MaxHours].
type InvalidHoursError struct {
	Date     Date
	Category Category
	Hours    decimal.Decimal
}

func (e *InvalidHoursError) Error() string {
	return fmt.Sprintf("invalid hours %s for %s (%s): must be between 0 and %s",
		e.Hours, e.Date, e.Category, MaxHours)
}

func (e *InvalidHoursError) Unwrap() error {
	return ErrInvalidHours
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyPerson) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrUnknownPerson)
}
