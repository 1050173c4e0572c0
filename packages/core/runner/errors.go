package runner

import (
	"errors"
	"fmt"
)

// ErrAborted matches every *AbortError.
var ErrAborted = errors.New("pre-request failed")

// AbortError stops a suite run: a pre-request answered with an error status
// or could not be sent. No main request runs after it.
type AbortError struct {
	Request string
	Method  string
	URL     string
	Status  int
	Err     error
}

func (e *AbortError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", ErrAborted, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: status %d", ErrAborted, e.Method, e.URL, e.Status)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func (e *AbortError) Is(target error) bool {
	return target == ErrAborted
}

// TransportError reports a request that received no response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
