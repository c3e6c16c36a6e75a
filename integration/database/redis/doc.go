// Package redis connects to Redis for the shared session store.
//
// Connect validates the URL (redis:// or rediss://), then pings with
// exponential backoff until the server answers, the attempts run out, or
// ConnectTimeout passes:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  time.Second,
//		ConnectTimeout: 30 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := kvstore.NewRedisStore(client, "portal:")
//
// Healthcheck returns a probe suitable for readiness endpoints.
//
// Errors can be checked with errors.Is:
//
//   - ErrEmptyURL: no URL configured
//   - ErrInvalidURL: malformed URL or wrong scheme
//   - ErrNotReady: server did not answer in time
//   - ErrUnhealthy: probe ping failed
package redis
