package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one API call. Path is resolved against the base URL.
//
// An Anonymous request is sent without the bearer token, and a 401 answer to
// it leaves the audience's stored session untouched. Credential exchanges
// use it so a rejected sign-in cannot end the session already in place.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Header    http.Header
	Body      any
	Audience  string
	Anonymous bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Join(ErrDecodeBody, err)
	}
	return nil
}

// encodeBody turns a request body into bytes once, so a retry resends
// exactly what the first attempt sent.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/json", nil
	case json.RawMessage:
		return b, "application/json", nil
	case string:
		return []byte(b), "text/plain; charset=utf-8", nil
	case url.Values:
		return []byte(b.Encode()), "application/x-www-form-urlencoded", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", errors.Join(ErrEncodeBody, err)
		}
		return data, "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", errors.Join(ErrEncodeBody, err)
		}
		return data, "application/json", nil
	}
}

// isMutating reports whether method needs a CSRF token.
func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

var csrfExpiredMarkers = []string{
	"invalid csrf token",
	"csrf token expired",
	"csrf token mismatch",
	"ebadcsrftoken",
}

// csrfExpired reports whether the server rejected the request's CSRF token.
// A plain 403 is not enough; the body has to say so.
func csrfExpired(status int, body []byte) bool {
	if status != http.StatusForbidden {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, m := range csrfExpiredMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
