package clock

import (
	"sync"
	"time"
)

// Mock is a manually driven Clock for tests.
// Callbacks registered with Every fire synchronously inside Advance, in time order.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers map[int]*mockTimer
}

type mockTimer struct {
	id       int
	mock     *Mock
	interval time.Duration
	next     time.Time
	fn       func(time.Time)
}

// NewMock creates a Mock clock set to start.
func NewMock(start time.Time) *Mock {
	return &Mock{
		now:    start,
		timers: make(map[int]*mockTimer),
	}
}

// Now returns the mock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers a periodic callback. Non-positive intervals are never fired.
func (m *Mock) Every(d time.Duration, fn func(time.Time)) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &mockTimer{
		id:       m.seq,
		mock:     m,
		interval: d,
		next:     m.now.Add(d),
		fn:       fn,
	}
	m.timers[t.id] = t
	return t
}

// Set moves the clock to t without firing any callbacks.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
	for _, tm := range m.timers {
		if tm.next.Before(t) {
			tm.next = t.Add(tm.interval)
		}
	}
}

// Advance moves the clock forward by d, firing every due callback along the way.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)

	for {
		due := m.nextDue(target)
		if due == nil {
			break
		}
		m.now = due.next
		due.next = due.next.Add(due.interval)
		fn, at := due.fn, m.now

		// Callbacks may stop or register timers
		m.mu.Unlock()
		fn(at)
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

// Active reports how many timers are still registered.
func (m *Mock) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Mock) nextDue(target time.Time) *mockTimer {
	var due *mockTimer
	for _, t := range m.timers {
		if t.interval <= 0 || t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.id < due.id) {
			due = t
		}
	}
	return due
}

func (t *mockTimer) Stop() bool {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()

	if _, ok := t.mock.timers[t.id]; !ok {
		return false
	}
	delete(t.mock.timers, t.id)
	return true
}
