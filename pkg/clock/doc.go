// Package clock abstracts wall-clock time and periodic scheduling so that
// time-driven components can be tested without real waits.
//
// Production code uses Real:
//
//	c := clock.Real()
//	t := c.Every(time.Minute, func(now time.Time) {
//		log.Println("tick", now)
//	})
//	defer t.Stop()
//
// Tests use Mock and drive time explicitly:
//
//	m := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
//	m.Every(time.Minute, fn)
//	m.Advance(3 * time.Minute) // fn fires three times, synchronously
//
// Mock.Active reports how many timers are still registered, which makes
// leaked timers visible in tests.
package clock
