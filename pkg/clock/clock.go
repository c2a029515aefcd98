// Package clock abstracts the wall clock so that time-gated ledger rules
// (staking maturity, early-withdrawal penalty windows) can be tested
// deterministically. No external dependencies - uses only standard library.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time. Ledger operations never call time.Now
// directly; they receive a Clock so tests can move time forward.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// System is a Clock backed by the real wall clock.
type System struct{}

// NewSystem creates a system clock.
func NewSystem() System {
	return System{}
}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually controlled Clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the fake clock to the given instant.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
