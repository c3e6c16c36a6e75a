// Package csrf caches the anti-forgery token required on mutating API calls.
//
// The token lives only in memory. Get fetches it on first use and every
// caller that arrives while that fetch is in flight receives the same value:
//
//	fetcher, _ := csrf.NewHTTPFetcher(client, "https://api.example.com/", "csrf-token")
//	cache := csrf.New(fetcher)
//	tok, err := cache.Get(ctx)
//
// When the server reports the token as expired, call Invalidate; the next Get
// fetches a new one. A fetch that was already running when Invalidate was
// called does not repopulate the cache.
package csrf
