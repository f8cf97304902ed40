package api

import (
	"errors"
	"fmt"
)

// TransientError wraps a status-fetch failure that the poll loop should
// absorb: network errors and non-2xx responses. Transient failures are
// retried on the next tick and never surfaced as a session state change.
type TransientError struct {
	// Op is the operation that failed (e.g. "get incident")
	Op string
	// StatusCode is the HTTP status, 0 for network-level failures
	StatusCode int
	// Err is the underlying error, if any
	Err error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transient fetch failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
