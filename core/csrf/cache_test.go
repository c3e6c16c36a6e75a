package csrf_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/csrf"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
)

// gatedFetcher blocks every fetch until release is closed.
type gatedFetcher struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *gatedFetcher) Fetch(ctx context.Context) (string, error) {
	n := f.calls.Add(1)
	f.once.Do(func() { close(f.started) })
	<-f.release
	return fmt.Sprintf("token-%d", n), nil
}

func TestCache_SingleFlight(t *testing.T) {
	t.Parallel()

	fetcher := newGatedFetcher()
	cache := csrf.New(fetcher)

	const callers = 20
	results := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background())
		}(i)
	}

	<-fetcher.started
	time.Sleep(20 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "token-1", results[i])
	}

	tok, ok := cache.Peek()
	assert.True(t, ok)
	assert.Equal(t, "token-1", tok)
}

func TestCache_ReturnsCachedToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		calls.Add(1)
		return "abc", nil
	}))

	for range 3 {
		tok, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", tok)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_FailureLeavesCacheEmpty(t *testing.T) {
	t.Parallel()

	boom := errors.New("502 bad gateway")
	var calls atomic.Int32
	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", boom
		}
		return "second", nil
	}))

	_, err := cache.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, csrf.ErrFetchFailed)

	_, ok := cache.Peek()
	assert.False(t, ok)

	tok, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
}

func TestCache_EmptyTokenIsFailure(t *testing.T) {
	t.Parallel()

	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		return "", nil
	}))

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, csrf.ErrEmptyToken)
	_, ok := cache.Peek()
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		return fmt.Sprintf("t%d", calls.Add(1)), nil
	}))

	tok, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", tok)

	cache.Invalidate()
	cache.Invalidate()
	_, ok := cache.Peek()
	assert.False(t, ok)

	tok, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", tok)
}

func TestCache_Reject(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		return fmt.Sprintf("t%d", calls.Add(1)), nil
	}))

	assert.False(t, cache.Reject(""), "nothing cached")

	tok, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "t1", tok)

	assert.False(t, cache.Reject("t0"), "an older token leaves the newer one alone")
	cached, ok := cache.Peek()
	assert.True(t, ok)
	assert.Equal(t, "t1", cached)

	assert.True(t, cache.Reject("t1"))
	assert.False(t, cache.Reject("t1"))
	_, ok = cache.Peek()
	assert.False(t, ok)

	tok, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t2", tok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_RejectKeepsFetchInFlight(t *testing.T) {
	t.Parallel()

	fetcher := newGatedFetcher()
	cache := csrf.New(fetcher)

	done := make(chan string, 1)
	go func() {
		tok, _ := cache.Get(context.Background())
		done <- tok
	}()
	<-fetcher.started

	assert.False(t, cache.Reject("token-0"))
	close(fetcher.release)

	select {
	case tok := <-done:
		assert.Equal(t, "token-1", tok)
	case <-time.After(time.Second):
		t.Fatal("fetch did not complete")
	}

	cached, ok := cache.Peek()
	assert.True(t, ok, "fetch result is still cached")
	assert.Equal(t, "token-1", cached)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCache_InvalidateDuringFetch(t *testing.T) {
	t.Parallel()

	fetcher := newGatedFetcher()
	cache := csrf.New(fetcher)

	done := make(chan string)
	go func() {
		tok, _ := cache.Get(context.Background())
		done <- tok
	}()

	<-fetcher.started
	cache.Invalidate()
	close(fetcher.release)

	assert.Equal(t, "token-1", <-done)
	_, ok := cache.Peek()
	assert.False(t, ok, "a fetch that predates Invalidate must not repopulate the cache")
}

func TestCache_WaiterCancellation(t *testing.T) {
	t.Parallel()

	fetcher := newGatedFetcher()
	cache := csrf.New(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		_, err := cache.Get(ctx)
		errCh <- err
	}()

	<-fetcher.started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(fetcher.release)
	assert.Eventually(t, func() bool {
		_, ok := cache.Peek()
		return ok
	}, time.Second, 5*time.Millisecond, "the shared fetch completes for later callers")
}

func TestCache_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry(), "test")
	fail := true
	cache := csrf.New(csrf.FetcherFunc(func(context.Context) (string, error) {
		if fail {
			fail = false
			return "", errors.New("nope")
		}
		return "ok", nil
	}), csrf.WithMetrics(m))

	_, _ = cache.Get(context.Background())
	_, _ = cache.Get(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CSRFFetches.WithLabelValues(metrics.ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CSRFFetches.WithLabelValues(metrics.ResultSuccess)))
}

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{name: "csrfToken", status: 200, body: `{"csrfToken":"a","token":"z"}`, want: "a"},
		{name: "snake case", status: 200, body: `{"csrf_token":"b","token":"z"}`, want: "b"},
		{name: "token", status: 200, body: `{"token":"c"}`, want: "c"},
		{name: "empty", status: 200, body: `{"csrfToken":""}`, wantErr: csrf.ErrEmptyToken},
		{name: "server error", status: 500, body: `{}`},
		{name: "not json", status: 200, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/csrf-token", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f, err := csrf.NewHTTPFetcherFromConfig(srv.Client(), srv.URL+"/api", csrf.Config{Endpoint: "/csrf-token"})
			require.NoError(t, err)

			tok, err := f.Fetch(context.Background())
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok)
		})
	}
}
