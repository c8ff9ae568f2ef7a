package backend

import (
	"errors"
	"fmt"
)

// ErrBadStatus is returned when a list endpoint answers 2xx but reports a
// status other than "success".
var ErrBadStatus = errors.New("backend reported failure")

// APIError is a non-2xx response. Message is the backend's own message when
// it sent one, otherwise a fixed fallback for the endpoint.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error returns Message verbatim so it can be shown to the user as-is.
func (e *APIError) Error() string {
	return e.Message
}

// Detail includes the endpoint and status code, for logs.
func (e *APIError) Detail() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
