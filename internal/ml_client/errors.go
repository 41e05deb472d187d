package ml_client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrBaseURLNotConfigured is wrapped in a ConnectivityError when no ML service
// address was configured. No network call is attempted in that case.
var ErrBaseURLNotConfigured = errors.New("ML service base URL is not configured")

const (
	CategoryConnectivity = "ConnectivityFailure"
	CategoryApplication  = "ApplicationError"
	CategoryUnexpected   = "UnexpectedError"
)

// ConnectivityError means the ML service could not be reached: every attempt
// failed at the transport level, the call timed out, or the caller's context
// ended while retrying.
type ConnectivityError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *ConnectivityError) Error() string {
	if e.Attempts == 0 {
		return fmt.Sprintf("ML service unreachable at %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("ML service unreachable at %s after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// StatusError means the ML service answered with a non-2xx status. The body
// is kept (truncated) for diagnosis and is never decoded as a result.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("ML service returned status %d: %s", e.StatusCode, body)
}

// ErrorCategory names the failure class of an error returned by the client.
func ErrorCategory(err error) string {
	var connErr *ConnectivityError
	var statusErr *StatusError
	switch {
	case errors.As(err, &connErr):
		return CategoryConnectivity
	case errors.As(err, &statusErr):
		return CategoryApplication
	default:
		return CategoryUnexpected
	}
}
