package rest

import "fmt"

// APIError is a non-2xx response from the backend. Authentication failures
// are surfaced as types.ErrAuthenticationFailed instead so callers can tell
// "log in again" apart from transient API trouble.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d [%s]: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}
