package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/csrf"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/token"
)

// DefaultAudience is used when neither the request nor the context names one.
const DefaultAudience = "customer"

// Pipeline sends API requests with the session and CSRF headers attached.
// It replays a request once when the server rejects its CSRF token and
// clears the audience's session token when the server answers 401.
type Pipeline struct {
	client     *http.Client
	base       *url.URL
	tokens     *token.Store
	csrf       *csrf.Cache
	audience   string
	userAgent  string
	csrfHeader string
	tracing    bool
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient sets the client used for every request.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.client = c
		}
	}
}

// WithAudience sets the audience used when a request names none.
func WithAudience(audience string) Option {
	return func(p *Pipeline) {
		if audience != "" {
			p.audience = audience
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(p *Pipeline) {
		p.userAgent = ua
	}
}

func WithCSRFHeader(name string) Option {
	return func(p *Pipeline) {
		if name != "" {
			p.csrfHeader = name
		}
	}
}

// WithTracing wraps the client transport with OpenTelemetry instrumentation.
func WithTracing(enabled bool) Option {
	return func(p *Pipeline) {
		p.tracing = enabled
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a pipeline for the API at baseURL. cache may be nil, in which
// case no CSRF header is sent and no CSRF retry happens.
func New(baseURL string, tokens *token.Store, cache *csrf.Cache, opts ...Option) (*Pipeline, error) {
	if tokens == nil {
		return nil, ErrNoTokenStore
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	p := &Pipeline{
		client:     http.DefaultClient,
		base:       base,
		tokens:     tokens,
		csrf:       cache,
		audience:   DefaultAudience,
		csrfHeader: "X-CSRF-Token",
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.tracing {
		traced := *p.client
		rt := traced.Transport
		if rt == nil {
			rt = http.DefaultTransport
		}
		traced.Transport = otelhttp.NewTransport(rt)
		p.client = &traced
	}

	return p, nil
}

// NewFromConfig creates a pipeline from cfg. Options override cfg.
func NewFromConfig(cfg Config, tokens *token.Store, cache *csrf.Cache, opts ...Option) (*Pipeline, error) {
	base := []Option{
		WithUserAgent(cfg.UserAgent),
		WithCSRFHeader(cfg.CSRFHeader),
		WithTracing(cfg.Tracing),
	}
	return New(cfg.BaseURL, tokens, cache, append(base, opts...)...)
}

type audienceKey struct{}

// ContextWithAudience makes calls made with ctx use audience when the
// request does not set one.
func ContextWithAudience(ctx context.Context, audience string) context.Context {
	return context.WithValue(ctx, audienceKey{}, audience)
}

// AudienceFromContext returns the audience stored by ContextWithAudience.
func AudienceFromContext(ctx context.Context) (string, bool) {
	aud, ok := ctx.Value(audienceKey{}).(string)
	return aud, ok && aud != ""
}

// Audience returns the pipeline's default audience.
func (p *Pipeline) Audience() string { return p.audience }

// BaseURL returns the resolved API base URL.
func (p *Pipeline) BaseURL() string { return p.base.String() }

// Do sends r. Responses with status >= 400 are returned as *HTTPError.
func (p *Pipeline) Do(ctx context.Context, r Request) (*Response, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	audience := r.Audience
	if audience == "" {
		if aud, ok := AudienceFromContext(ctx); ok {
			audience = aud
		} else {
			audience = p.audience
		}
	}

	target, err := p.resolve(r.Path, r.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	var bearer string
	if !r.Anonymous {
		if bearer, _, err = p.tokens.Get(ctx, audience); err != nil {
			return nil, err
		}
	}

	a := attempt{
		method:      method,
		url:         target,
		header:      r.Header,
		body:        body,
		contentType: contentType,
		bearer:      bearer,
		requestID:   uuid.NewString(),
	}

	mutating := isMutating(method) && p.csrf != nil
	if mutating {
		// Best effort: the server decides whether a missing token is fatal.
		tok, err := p.csrf.Get(ctx)
		if err != nil {
			p.logger.WarnContext(ctx, "sending request without csrf token",
				logger.Method(method),
				logger.Path(r.Path),
				logger.Error(err),
			)
		}
		a.csrf = tok
	}

	resp, err := p.send(ctx, a, 1)
	if err != nil {
		return nil, err
	}

	if mutating && csrfExpired(resp.StatusCode, resp.Body) {
		p.logger.InfoContext(ctx, "csrf token rejected, refreshing",
			logger.Method(method),
			logger.Path(r.Path),
			logger.RequestID(a.requestID),
		)

		// Another request may already have replaced the rejected token.
		p.csrf.Reject(a.csrf)
		fresh, err := p.csrf.Get(ctx)
		if err != nil {
			return nil, errors.Join(ErrCSRFRefresh, err)
		}
		a.csrf = fresh

		p.metrics.CSRFRetry()
		resp, err = p.send(ctx, a, 2)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.Anonymous {
		p.metrics.Unauthorize(audience)
		if err := p.tokens.Clear(ctx, audience); err != nil {
			p.logger.ErrorContext(ctx, "failed to clear rejected session token",
				logger.Audience(audience),
				logger.Error(err),
			)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			Method:     method,
			Path:       r.Path,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	return resp, nil
}

// JSON sends in as the body and decodes the response into out.
// Either may be nil.
func (p *Pipeline) JSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := p.Do(ctx, Request{Method: method, Path: path, Body: in})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

type attempt struct {
	method      string
	url         string
	header      http.Header
	body        []byte
	contentType string
	bearer      string
	csrf        string
	requestID   string
}

func (p *Pipeline) send(ctx context.Context, a attempt, n int) (*Response, error) {
	var body io.Reader
	if a.body != nil {
		body = bytes.NewReader(a.body)
	}

	req, err := http.NewRequestWithContext(ctx, a.method, a.url, body)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build request: %w", err)
	}
	for k, vs := range a.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if a.contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", a.contentType)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("X-Request-ID", a.requestID)
	if a.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+a.bearer)
	}
	if a.csrf != "" {
		req.Header.Set(p.csrfHeader, a.csrf)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.Request(a.method, 0, time.Since(start))
		p.logger.WarnContext(ctx, "api request failed",
			logger.Method(a.method),
			logger.Path(req.URL.Path),
			logger.RequestID(a.requestID),
			logger.Attempt(n),
			logger.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	took := time.Since(start)
	p.metrics.Request(a.method, resp.StatusCode, took)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read response: %w", err)
	}

	p.logger.DebugContext(ctx, "api request",
		logger.Method(a.method),
		logger.Path(req.URL.Path),
		logger.StatusCode(resp.StatusCode),
		logger.RequestID(a.requestID),
		logger.Attempt(n),
		logger.Latency(took),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (p *Pipeline) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", errors.Join(ErrInvalidPath, err)
	}
	u := p.base.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
