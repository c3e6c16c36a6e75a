package idle

import (
	"cmp"
	"slices"
	"sync"
)

// Signal is a kind of user activity.
type Signal string

const (
	PointerMove Signal = "pointermove"
	KeyPress    Signal = "keypress"
	Click       Signal = "click"
	Scroll      Signal = "scroll"
)

// ActivitySignals are the signals a monitor listens to.
var ActivitySignals = []Signal{PointerMove, KeyPress, Click, Scroll}

// Source delivers activity signals. Subscribe returns a function that removes
// the subscription; calling it more than once is harmless.
type Source interface {
	Subscribe(kinds []Signal, fn func(Signal)) (unsubscribe func())
}

// Dispatcher is an in-process Source. Handlers run synchronously on the
// goroutine that calls Dispatch, in subscription order.
type Dispatcher struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]subscription
}

type subscription struct {
	id    uint64
	kinds map[Signal]struct{}
	fn    func(Signal)
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[uint64]subscription)}
}

func (d *Dispatcher) Subscribe(kinds []Signal, fn func(Signal)) func() {
	set := make(map[Signal]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs[id] = subscription{id: id, kinds: set, fn: fn}
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// Dispatch delivers s to every handler subscribed to its kind.
func (d *Dispatcher) Dispatch(s Signal) {
	d.mu.RLock()
	handlers := make([]subscription, 0, len(d.subs))
	for _, sub := range d.subs {
		if _, ok := sub.kinds[s]; ok {
			handlers = append(handlers, sub)
		}
	}
	d.mu.RUnlock()

	slices.SortFunc(handlers, func(a, b subscription) int {
		return cmp.Compare(a.id, b.id)
	})

	for _, h := range handlers {
		h.fn(s)
	}
}

// Subscribers returns the number of live subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
