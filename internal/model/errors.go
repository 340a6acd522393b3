// Package model holds the value types shared by the editor, the reservation
// state machine and the persistence gateway.
package model

import (
	"errors"
	"fmt"
)

// Error categories.  Every specific error below wraps exactly one of these
// so callers can branch with errors.Is on the category alone.
var (
	ErrValidation   = errors.New("validation error")
	ErrCapacity     = errors.New("capacity error")
	ErrAvailability = errors.New("availability error")
	ErrAuth         = errors.New("auth error")
)

var (
	ErrEmptyFields  = fmt.Errorf("%w: date, time, people and seat selection are required", ErrValidation)
	ErrInvalidField = fmt.Errorf("%w: invalid field value", ErrValidation)
	ErrInvalidBlock = fmt.Errorf("%w: rows and columns must be positive and spacing non-negative", ErrValidation)
	ErrUnknownSeat  = fmt.Errorf("%w: seat is not part of the layout", ErrValidation)

	ErrBlockOutOfBounds = fmt.Errorf("%w: block does not fit the grid", ErrValidation)
	ErrBlockTooLarge    = fmt.Errorf("%w: block has too many seats", ErrValidation)
)

var (
	ErrTooManySelected = fmt.Errorf("%w: cannot select more seats than people", ErrCapacity)
)

var (
	ErrAllReserved  = fmt.Errorf("%w: all seats are reserved", ErrAvailability)
	ErrSeatReserved = fmt.Errorf("%w: seat is already reserved", ErrAvailability)
	ErrSeatsTaken   = fmt.Errorf("%w: one or more seats were reserved by someone else", ErrAvailability)
)

var (
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrAuth)
)

// ErrNotFound is returned for seat or label ids that do not exist.
var ErrNotFound = errors.New("not found")

// ErrStaleResponse is returned when an availability answer arrives after the
// date or time it was asked for has changed.  The answer is discarded.
var ErrStaleResponse = errors.New("stale availability response")

// Kind names the category of err for API responses.  It returns "" for
// errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrAvailability):
		return "availability"
	case errors.Is(err, ErrAuth):
		return "auth"
	}
	return ""
}
