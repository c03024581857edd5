package session

import (
	"sync"
	"time"
)

// Activity is a user interaction that keeps a session alive.
type Activity int

const (
	ActivityPointer Activity = iota
	ActivityKey
	ActivityScroll
	ActivityClick
	ActivityRequest
)

// Timer is the subset of *time.Timer the watcher uses.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// IdleWatcher calls onIdle exactly once after timeout passes with no Touch.
// It must be stopped when the view it guards is torn down.
type IdleWatcher struct {
	mu       sync.Mutex
	clock    Clock
	timeout  time.Duration
	onIdle   func()
	timer    Timer
	gen      uint64
	deadline time.Time
	fired    bool
	stopped  bool
}

// NewIdleWatcher starts watching immediately. A nil clock means the system
// clock; a non-positive timeout means DefaultIdleTimeout.
func NewIdleWatcher(timeout time.Duration, clock Clock, onIdle func()) *IdleWatcher {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if clock == nil {
		clock = SystemClock
	}
	w := &IdleWatcher{clock: clock, timeout: timeout, onIdle: onIdle}
	w.mu.Lock()
	w.arm()
	w.mu.Unlock()
	return w
}

func (w *IdleWatcher) arm() {
	w.gen++
	gen := w.gen
	w.deadline = w.clock.Now().Add(w.timeout)
	w.timer = w.clock.AfterFunc(w.timeout, func() { w.expire(gen) })
}

func (w *IdleWatcher) expire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.fired || w.stopped {
		w.mu.Unlock()
		return
	}
	w.fired = true
	w.mu.Unlock()
	if w.onIdle != nil {
		w.onIdle()
	}
}

// Touch restarts the countdown. Every Activity kind resets it equally.
func (w *IdleWatcher) Touch(Activity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fired || w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.arm()
}

// Stop cancels the watcher without calling onIdle.
func (w *IdleWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Fired reports whether onIdle has been called.
func (w *IdleWatcher) Fired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

// Remaining returns the time left before the session idles out.
func (w *IdleWatcher) Remaining() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fired || w.stopped {
		return 0
	}
	if d := w.deadline.Sub(w.clock.Now()); d > 0 {
		return d
	}
	return 0
}

// Watchers tracks one IdleWatcher per portal session.
type Watchers[K comparable] struct {
	mu       sync.Mutex
	timeout  time.Duration
	clock    Clock
	watchers map[K]*IdleWatcher
}

func NewWatchers[K comparable](timeout time.Duration, clock Clock) *Watchers[K] {
	return &Watchers[K]{timeout: timeout, clock: clock, watchers: make(map[K]*IdleWatcher)}
}

// Start replaces any watcher for key with a fresh one.
func (ws *Watchers[K]) Start(key K, onIdle func()) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if old, ok := ws.watchers[key]; ok {
		old.Stop()
	}
	var w *IdleWatcher
	w = NewIdleWatcher(ws.timeout, ws.clock, func() {
		ws.mu.Lock()
		if ws.watchers[key] == w {
			delete(ws.watchers, key)
		}
		ws.mu.Unlock()
		onIdle()
	})
	ws.watchers[key] = w
}

// Touch resets key's countdown and reports whether key is watched.
func (ws *Watchers[K]) Touch(key K, a Activity) bool {
	ws.mu.Lock()
	w, ok := ws.watchers[key]
	ws.mu.Unlock()
	if ok {
		w.Touch(a)
	}
	return ok
}

// Stop removes key's watcher without firing it and reports whether one
// existed.
func (ws *Watchers[K]) Stop(key K) bool {
	ws.mu.Lock()
	w, ok := ws.watchers[key]
	delete(ws.watchers, key)
	ws.mu.Unlock()
	if ok {
		w.Stop()
	}
	return ok
}

// StopAll stops every watcher.
func (ws *Watchers[K]) StopAll() {
	ws.mu.Lock()
	all := ws.watchers
	ws.watchers = make(map[K]*IdleWatcher)
	ws.mu.Unlock()
	for _, w := range all {
		w.Stop()
	}
}

func (ws *Watchers[K]) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.watchers)
}
