package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthRequired indicates the server rejected the credential (HTTP 401).
	// The stored credential has already been cleared; callers must not retry.
	ErrAuthRequired = errors.New("api: authentication required")
	// ErrNotFound matches any RequestError carrying HTTP 404.
	ErrNotFound = errors.New("api: not found")
)

// RequestError is a non-2xx response other than 401.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// NetworkError is a transport-level failure: DNS, refused connection, timeout.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: network error on %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode extracts the HTTP status from a RequestError, or 0.
func StatusCode(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.StatusCode
	}
	if errors.Is(err, ErrAuthRequired) {
		return http.StatusUnauthorized
	}
	return 0
}
