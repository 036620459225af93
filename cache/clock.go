package cache

import "time"

// Clock abstracts the time source used for TTL decisions so expiration
// is testable without real delays. The default is the system wall clock;
// inject a fake via WithClock in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the default Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// systemClock is the default Clock backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
