// Package scheduler provides repeating and one-shot timers whose callbacks all run
// on a single loop, with cancel handles that take effect synchronously.
package scheduler

import "time"

// Handle identifies a scheduled timer. The zero Handle is never issued.
type Handle uint64

// Scheduler is the timer primitive used by verification sessions.
//
// Every callback (timer callbacks and Async completions) runs on the scheduler's
// loop, one at a time. A handle cancelled from the loop never fires again,
// even if its timer already expired and the callback is waiting in the queue.
type Scheduler interface {
	// Every runs fn every interval until cancelled.
	Every(interval time.Duration, fn func()) Handle
	// After runs fn once after delay unless cancelled first.
	After(delay time.Duration, fn func()) Handle
	// Cancel stops a timer. Unknown, zero and already-cancelled handles are ignored.
	Cancel(h Handle)

	// Async runs work off the loop (it may block) and then runs done on the loop.
	Async(work func(), done func())
	// Do runs fn on the loop and waits for it to return.
	// It must not be called from a loop callback.
	Do(fn func())

	// Now reports the scheduler's clock.
	Now() time.Time
}
