package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time and schedules periodic callbacks.
type Clock interface {
	Now() time.Time
	// Every calls fn with the tick time every d until the returned Timer is stopped.
	Every(d time.Duration, fn func(time.Time)) Timer
}

// Timer is a handle to a periodic callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the timer was already stopped.
	// Stop never waits for an in-progress callback, so it is safe to call from inside one.
	Stop() bool
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Every(d time.Duration, fn func(time.Time)) Timer {
	t := &realTimer{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.done:
				return
			case now := <-t.ticker.C:
				// Stop may race with a tick that was already delivered
				select {
				case <-t.done:
					return
				default:
				}
				fn(now)
			}
		}
	}()

	return t
}

type realTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
