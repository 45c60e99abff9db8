// Package supflags implements the one piece of intentionally process-wide
// mutable state the supervisor needs: a small fixed-size set of flags set by
// the signal bridge and consumed (tested-and-cleared) by the event loop.
//
// The original C implementation used volatile sig_atomic_t globals, written
// only from an async-signal-safe handler. Go's os/signal package already
// owns the real signal delivery and hands it to user code on an ordinary
// goroutine, so the "handler" here is just that goroutine — but the flag
// cells themselves keep the same shape: a fixed array indexed by a closed
// enum, each cell a type safe for concurrent set/test-and-clear without a
// lock (atomic.Bool).
package supflags

import "sync/atomic"

// Kind enumerates the flags the bridge can set. It is a closed set — no
// parallel arrays, no stringly-typed lookups.
type Kind int

const (
	Termination Kind = iota
	Usr1
	Usr2
	Alarm
	numKinds
)

// Set is a fixed-size table of atomic flags, one per Kind. The zero value is
// ready to use.
type Set struct {
	cells [numKinds]atomic.Bool
}

// Raise sets the flag for kind. Idempotent: raising an already-set flag is a
// no-op observationally (exactly one observation is guaranteed, not a count).
func (s *Set) Raise(kind Kind) {
	s.cells[kind].Store(true)
}

// TestAndClear reports whether kind was set, clearing it unconditionally.
// A concurrent Raise between the test and the clear is not lost: it simply
// sets the flag again for the next TestAndClear to observe.
func (s *Set) TestAndClear(kind Kind) bool {
	return s.cells[kind].Swap(false)
}
