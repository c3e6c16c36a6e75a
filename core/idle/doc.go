// Package idle logs users out after a period without activity.
//
// A Monitor keeps one watch per audience. While a session is watched, every
// activity signal (pointer movement, key press, click, scroll) may refresh
// the "last active" timestamp in the key-value store, at most once per
// ActivityThrottle. A poll every PollInterval compares that timestamp with
// the clock and, once the gap exceeds IdleTimeout, runs the expiry callback
// exactly once and releases the poll timer and the signal subscription.
//
//	activity := idle.NewDispatcher()
//	monitor := idle.New(kv, activity)
//
//	stop, err := monitor.Arm(ctx, "customer", func() {
//		_ = authService.Logout(context.Background())
//	})
//	defer stop()
//
//	// The UI layer forwards raw input events.
//	activity.Dispatch(idle.PointerMove)
//
// After a restart, use Resume instead of Arm: a session whose stored
// timestamp is already older than IdleTimeout expires immediately and Resume
// returns ErrExpired.
//
// Timings come from Config (SESSION_IDLE_TIMEOUT, SESSION_POLL_INTERVAL,
// SESSION_ACTIVITY_THROTTLE) and default to 10m, 60s and 1s.
package idle
