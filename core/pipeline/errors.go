package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized   = errors.New("pipeline: unauthorized")
	ErrCSRFRefresh    = errors.New("pipeline: csrf token refresh failed")
	ErrInvalidBaseURL = errors.New("pipeline: invalid base url")
	ErrNoTokenStore   = errors.New("pipeline: token store is required")
	ErrInvalidPath    = errors.New("pipeline: invalid request path")
	ErrEncodeBody     = errors.New("pipeline: failed to encode request body")
	ErrDecodeBody     = errors.New("pipeline: failed to decode response body")
)

// HTTPError is returned for any response with a status of 400 or above.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pipeline: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports ErrUnauthorized for 401 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
