// Package metrics exposes Prometheus counters for the session lifecycle:
// CSRF fetches and retries, API requests, 401 responses, logins, activity
// writes and idle expirations.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg, "portal")
//	csrfCache := csrf.New(fetcher, csrf.WithMetrics(m))
//
// Every recording method is a no-op on a nil *Collector.
package metrics
