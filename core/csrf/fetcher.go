package csrf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Config holds the CSRF endpoint location relative to the API base URL.
type Config struct {
	Endpoint string `env:"CSRF_ENDPOINT" envDefault:"csrf-token"`
}

// tokenFields lists the accepted response fields in precedence order.
var tokenFields = []string{"csrfToken", "csrf_token", "token"}

// maxBody bounds how much of the CSRF response is read.
const maxBody = 64 << 10

// HTTPFetcher fetches the token with a GET to the CSRF endpoint.
// It must share a cookie jar with the pipeline's client when the backend
// binds the token to a session cookie.
type HTTPFetcher struct {
	client   *http.Client
	endpoint string
}

// NewHTTPFetcher resolves endpoint against baseURL.
func NewHTTPFetcher(client *http.Client, baseURL, endpoint string) (*HTTPFetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("csrf: invalid base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("csrf: invalid endpoint: %w", err)
	}

	return &HTTPFetcher{
		client:   client,
		endpoint: base.ResolveReference(ref).String(),
	}, nil
}

// NewHTTPFetcherFromConfig builds a fetcher from cfg.
func NewHTTPFetcherFromConfig(client *http.Client, baseURL string, cfg Config) (*HTTPFetcher, error) {
	return NewHTTPFetcher(client, baseURL, cfg.Endpoint)
}

// URL returns the resolved endpoint.
func (f *HTTPFetcher) URL() string { return f.endpoint }

func (f *HTTPFetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("csrf: unexpected status %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("csrf: decode response: %w", err)
	}

	for _, field := range tokenFields {
		if s, ok := payload[field].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", ErrEmptyToken
}
