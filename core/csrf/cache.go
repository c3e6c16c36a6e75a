package csrf

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
)

var (
	ErrFetchFailed = errors.New("csrf: token fetch failed")
	ErrEmptyToken  = errors.New("csrf: server returned an empty token")
)

const flightKey = "csrf"

// Fetcher obtains a fresh CSRF token from the server.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context) (string, error) { return f(ctx) }

// Cache holds one in-memory CSRF token and fetches it on demand.
// Concurrent callers that find the cache empty share a single fetch.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *metrics.Collector

	group singleflight.Group

	mu    sync.RWMutex
	token string
	gen   uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records fetch results on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates an empty cache backed by fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached token, fetching it first if the cache is empty.
// A failed fetch leaves the cache empty so the next call tries again.
// ctx only bounds this caller's wait; the shared fetch keeps running for others.
func (c *Cache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	tok, gen := c.token, c.gen
	c.mu.RUnlock()
	if tok != "" {
		return tok, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.fetch(fetchCtx, gen)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) fetch(ctx context.Context, gen uint64) (string, error) {
	tok, err := c.fetcher.Fetch(ctx)
	if err == nil && tok == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		c.metrics.CSRFFetch(false)
		c.logger.WarnContext(ctx, "csrf token fetch failed",
			logger.Component("csrf"),
			logger.Error(err),
		)
		return "", errors.Join(ErrFetchFailed, err)
	}
	c.metrics.CSRFFetch(true)

	c.mu.Lock()
	// An Invalidate during the fetch means this token may already be stale.
	if c.gen == gen {
		c.token = tok
	}
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "csrf token fetched", logger.Component("csrf"))
	return tok, nil
}

// Invalidate drops the cached token. Safe to call any number of times.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.gen++
	c.mu.Unlock()
	c.group.Forget(flightKey)
}

// Reject drops the cached token if it is still tok, the token the server
// refused. A token fetched since then is kept, as is any fetch in flight.
// It reports whether the cache was cleared.
func (c *Cache) Reject(tok string) bool {
	c.mu.Lock()
	if c.token == "" || c.token != tok {
		c.mu.Unlock()
		return false
	}
	c.token = ""
	c.gen++
	c.mu.Unlock()
	c.group.Forget(flightKey)
	return true
}

// Peek returns the cached token without fetching.
func (c *Cache) Peek() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.token != ""
}
