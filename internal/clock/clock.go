package clock

import "time"

// Clock abstracts wall-clock reads so hold expiry is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

// Fixed is a settable Clock for tests.
type Fixed struct {
	Time time.Time
}

func (f *Fixed) Now() time.Time { return f.Time }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Time = f.Time.Add(d) }
