package claim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a claim, document, lecturer or batch id does not resolve
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the actor does not own or may not act on the resource
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for bad input: file type, file size, missing
	// reason, invalid date range or an invalid status transition
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a concurrent mutation won the race for a claim
	ErrConflict = errors.New("conflicting update")

	// ErrStorage is returned when the underlying file or persistence layer fails
	ErrStorage = errors.New("storage failure")
)

// invalidf wraps ErrValidation with a formatted rule description
func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
