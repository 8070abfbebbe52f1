// Package coarsetime provides a clock that is refreshed at a fixed interval
// by a background goroutine. Pool bookkeeping reads it on every acquire and
// release, where a precise time.Now() is not worth its cost.
package coarsetime

import (
	"sync/atomic"
	"time"
)

// Resolution is the refresh interval of the clock.
const Resolution = 50 * time.Millisecond

var current atomic.Pointer[time.Time]

func init() {
	store(time.Now())

	go func() {
		ticker := time.NewTicker(Resolution)
		for t := range ticker.C {
			store(t)
		}
	}()
}

func store(t time.Time) {
	current.Store(&t)
}

// Now returns the current time, at most Resolution old.
func Now() time.Time {
	return *current.Load()
}

// Since returns the time elapsed since t, measured on the coarse clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
