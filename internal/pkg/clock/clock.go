package clock

import "time"

// Clock supplies the current time. Injected into services so tests can
// pin and move time.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock
type System struct{}

// Now returns the current time
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a manually controlled clock for tests
type Fixed struct {
	T time.Time
}

// Now returns the pinned time
func (f *Fixed) Now() time.Time {
	return f.T
}

// Set moves the clock to t
func (f *Fixed) Set(t time.Time) {
	f.T = t
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.T = f.T.Add(d)
}
