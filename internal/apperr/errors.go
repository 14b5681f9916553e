// Package apperr holds the caller-facing error kinds shared by the discovery,
// review and auth layers.
package apperr

import "errors"

// ErrUnauthenticated is returned when an operation needs a signed-in subject
var ErrUnauthenticated = errors.New("authentication required")

// ValidationError reports malformed, missing or out-of-domain input.
// Message is safe to show to the caller.
type ValidationError struct {
	Message string
	Details map[string][]string
}

// Invalid returns a ValidationError without field details
func Invalid(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
