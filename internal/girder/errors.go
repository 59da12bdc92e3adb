package girder

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse marks a response that decoded but lacked an expected
// field, or could not be decoded at all.
var ErrMalformedResponse = errors.New("malformed response")

// ErrNoOutputsFolder is returned by FindOutputsFolder when the folder has no
// histoqc_outputs child yet. It wraps ErrMalformedResponse.
var ErrNoOutputsFolder = fmt.Errorf("%w: no %s subfolder", ErrMalformedResponse, OutputsFolderName)

// RequestError is returned for non-2xx responses.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// NetworkError is returned when a request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether the server rejected the token. A 403 means
// the token was accepted but lacks access, so it does not count.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
