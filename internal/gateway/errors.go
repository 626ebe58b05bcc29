package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TimeoutError means a search call exceeded its time ceiling after all
// retries. Callers treat it as a phase-level error, not a run failure.
type TimeoutError struct {
	Purpose string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gateway: search timed out (%s): %v", e.Purpose, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// CallError is a non-timeout transport or API failure after all retries.
type CallError struct {
	Purpose    string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway: search failed (%s) status %d: %v", e.Purpose, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway: search failed (%s): %v", e.Purpose, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a gateway timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// isDeadline detects timeout-shaped errors from the HTTP layer.
func isDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
