package torbox

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable is returned once every attempt of a call has failed.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrMalformedResponse covers success=false replies and bodies that do not decode.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError carries the detail the service returned alongside a failed call.
type APIError struct {
	Endpoint string
	Detail   string
	Err      error
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Endpoint, e.Err, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
