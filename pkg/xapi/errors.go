package xapi

import (
	"fmt"

	"github.com/newtron-network/epaudit/pkg/util"
)

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	Address    string
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == util.ErrRequestFailed
}

// RequestError is returned when a request could not complete: connection
// refused, TLS failure, timeout, truncated body.
type RequestError struct {
	Address string
	Method  string
	URL     string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == util.ErrRequestFailed
}
