package search

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces rapid calls: only the last call within the delay
// window runs. Used for keystroke-driven queries so typing only ever
// triggers the last pending query.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Do schedules fn, cancelling any previously scheduled call.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// DefaultQueryDebounce is the keystroke delay before a query runs.
const DefaultQueryDebounce = 150 * time.Millisecond

// QueryLive is the keystroke entry point: it debounces rapid calls so
// only the last pending query executes, and a completion superseded by
// a newer call is discarded instead of delivered.
func (s *Session) QueryLive(query string, deliver func([]Result, error)) {
	s.mu.Lock()
	if s.debouncer == nil {
		s.debouncer = NewDebouncer(s.queryDelay)
	}
	s.queryGen++
	gen := s.queryGen
	deb := s.debouncer
	s.mu.Unlock()

	deb.Do(func() {
		results, err := s.Query(context.Background(), query)
		s.mu.Lock()
		stale := gen != s.queryGen
		s.mu.Unlock()
		if stale {
			return
		}
		deliver(results, err)
	})
}
