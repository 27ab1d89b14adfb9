package scheduling

import (
	"sync"
	"time"
)

// FireFunc runs when a key's window elapses without a new Schedule call
type FireFunc[K comparable] func(key K)

type pendingTimer struct {
	timer      *time.Timer
	generation uint64
}

// Debouncer coalesces bursts of Schedule calls per key into a single trailing
// call of fire. Each key owns at most one timer; scheduling again within the
// window replaces it.
type Debouncer[K comparable] struct {
	fire   FireFunc[K]
	window time.Duration

	mu         sync.Mutex
	pending    map[K]*pendingTimer
	generation uint64
	closed     bool
}

// NewDebouncer creates a debouncer with the given trailing window
func NewDebouncer[K comparable](window time.Duration, fire FireFunc[K]) *Debouncer[K] {
	if window <= 0 {
		window = time.Second
	}
	return &Debouncer[K]{
		fire:    fire,
		window:  window,
		pending: make(map[K]*pendingTimer),
	}
}

// Schedule starts or restarts the timer for key. It reports whether a
// pending timer was replaced.
func (d *Debouncer[K]) Schedule(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	replaced := d.stopLocked(key)

	d.generation++
	gen := d.generation
	d.pending[key] = &pendingTimer{
		generation: gen,
		timer: time.AfterFunc(d.window, func() {
			d.expire(key, gen)
		}),
	}
	return replaced
}

// Cancel drops the pending timer for key without firing. It reports whether
// anything was pending.
func (d *Debouncer[K]) Cancel(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked(key)
}

// Flush cancels the pending timer for key and fires immediately on the
// calling goroutine. Nothing happens when no timer was pending.
func (d *Debouncer[K]) Flush(key K) bool {
	d.mu.Lock()
	had := d.stopLocked(key)
	d.mu.Unlock()

	if had {
		d.fire(key)
	}
	return had
}

// Pending reports whether key has a timer waiting
func (d *Debouncer[K]) Pending(key K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// PendingKeys returns every key with a timer waiting
func (d *Debouncer[K]) PendingKeys() []K {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]K, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	return keys
}

// Window returns the current trailing window
func (d *Debouncer[K]) Window() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

// SetWindow changes the window for timers scheduled from now on
func (d *Debouncer[K]) SetWindow(window time.Duration) {
	if window <= 0 {
		return
	}
	d.mu.Lock()
	d.window = window
	d.mu.Unlock()
}

// Close cancels everything and rejects further scheduling
func (d *Debouncer[K]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key := range d.pending {
		d.stopLocked(key)
	}
}

// expire runs on the timer goroutine. A timer that was stopped too late to
// prevent its callback finds a newer generation (or none) and does nothing.
func (d *Debouncer[K]) expire(key K, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.generation != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	d.fire(key)
}

func (d *Debouncer[K]) stopLocked(key K) bool {
	p, ok := d.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, key)
	return true
}
