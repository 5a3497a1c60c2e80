package transfusion

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a transfusion does not exist or is not
	// owned by the calling caregiver. The two cases are deliberately
	// indistinguishable so ownership probes leak nothing.
	ErrNotFound = errors.New("transfusion not found")

	// ErrInvalidTransition is returned when a lifecycle operation is not
	// legal from the transfusion's current status, including the case where
	// a concurrent caller changed the status between read and write.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRate is returned by the drip calculator for a
	// non-positive drop rate.
	ErrInvalidRate = errors.New("drop rate must be positive")
)

// ValidationError marks missing or out-of-range input. Surfaced as 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
