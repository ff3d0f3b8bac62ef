package confluence

import (
	"errors"
	"fmt"
)

// TransientError marks a failure to talk to the server at all: refused or reset connections,
// DNS trouble, timeouts, truncated bodies.  Trying again later may well work.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("confluence: transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// StatusError is returned when the server answered, but not with a 2xx.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("confluence: unexpected HTTP response status: %s: %s", e.Status, e.URL)
}

// IsTransient reports whether err (or anything it wraps) is a connectivity or timeout failure.
// HTTP status errors and decoding errors never are.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
