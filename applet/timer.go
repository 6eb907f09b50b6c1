package applet

import (
	"sync"
	"time"
)

// stopper is the part of *time.Timer the autolock timer needs.
type stopper interface {
	Stop() bool
}

type afterFunc func(d time.Duration, fn func()) stopper

func realAfterFunc(d time.Duration, fn func()) stopper {
	return time.AfterFunc(d, fn)
}

// Timer is a single restartable countdown. Expiry calls the ring callback
// from a timer goroutine; a countdown that was stopped or reset before the
// callback runs never rings.
type Timer struct {
	mu       sync.Mutex
	after    afterFunc
	ring     func()
	duration time.Duration
	pending  stopper
	gen      uint64
}

// NewTimer creates a stopped timer calling ring on expiry.
func NewTimer(ring func()) *Timer {
	return &Timer{after: realAfterFunc, ring: ring}
}

// Start (re)starts the countdown with duration d.
func (t *Timer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.duration = d
	t.armLocked()
}

// Reset restarts a running countdown with its current duration. It does
// nothing when the timer is stopped.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return
	}
	t.armLocked()
}

// Stop cancels the countdown.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// Running reports whether a countdown is pending.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

// Duration returns the duration of the last Start.
func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Timer) armLocked() {
	if t.pending != nil {
		t.pending.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = t.after(t.duration, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()
		t.ring()
	})
}
